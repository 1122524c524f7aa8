package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// OrdersHeader is the raw orders header used by the fixtures
const OrdersHeader = "order_id,user_id,amount,quantity,created_at,status"

// UsersHeader is the raw users header used by the fixtures
const UsersHeader = "user_id,country,signup_date"

// SampleOrders is a small raw orders table covering status synonyms, a
// refund, an unparseable amount, a missing timestamp and a duplicate order id.
var SampleOrders = []string{
	"o1,u1,100.00,1,2024-01-05T10:00:00Z,Paid",
	"o2,u2,50.00,2,2024-01-20 12:30:00,REFUNDED",
	"o3,u1,abc,1,2024-02-02T08:00:00Z, paid ",
	"o4,u3,150.00,3,,paid",
	"o5,u9,20.00,1,2024-02-14T23:59:00Z,cancelled",
	"o1,u1,100.00,1,2024-01-05T10:00:00Z,paid",
}

// SampleUsers matches SampleOrders except u9, which has no user row
var SampleUsers = []string{
	"u1,US,2023-12-01",
	"u2,DE,2023-11-15",
	"u3,US,2024-01-01",
}

// WriteFile writes content under dir, creating parent directories
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// WriteCSV writes a header and rows as a CSV file under dir
func WriteCSV(t *testing.T, dir, name, header string, rows []string) string {
	t.Helper()
	lines := append([]string{header}, rows...)
	return WriteFile(t, dir, name, strings.Join(lines, "\n")+"\n")
}

// WriteRawInputs writes SampleOrders and SampleUsers to <root>/data/raw and
// returns the root.
func WriteRawInputs(t *testing.T, root string) string {
	t.Helper()
	WriteCSV(t, root, filepath.Join("data", "raw", "orders.csv"), OrdersHeader, SampleOrders)
	WriteCSV(t, root, filepath.Join("data", "raw", "users.csv"), UsersHeader, SampleUsers)
	return root
}
