package config

// Application constants
const (
	AppName   = "orderpulse"
	EnvPrefix = "ORDERPULSE"

	// Directory layout (relative to the base directory)
	DefaultRawDir       = "data/raw"
	DefaultProcessedDir = "data/processed"
	DefaultReportsDir   = "reports"
	DefaultLogsDir      = "logs"
	DefaultLogFile      = "logs/orderpulse.log"

	// Raw inputs
	DefaultOrdersFile = "orders.csv"
	DefaultUsersFile  = "users.csv"

	// Processed artifacts
	OrdersCleanFile    = "orders_clean.parquet"
	UsersCleanFile     = "users.parquet"
	AnalyticsTableFile = "analytics_table.parquet"
	RunMetaFile        = "_run_meta.json"

	// Reports
	SummaryReportFile    = "summary.md"
	SummaryMetricsFile   = "summary_metrics.json"
	SummaryWorkbookFile  = "summary.xlsx"
	MissingnessFile      = "missingness_orders.csv"
	RevenueByCountryFile = "revenue_by_country.csv"

	DefaultRightSuffix = "_user"
)

// Column names used across stages
const (
	ColOrderID    = "order_id"
	ColUserID     = "user_id"
	ColAmount     = "amount"
	ColQuantity   = "quantity"
	ColCreatedAt  = "created_at"
	ColStatus     = "status"
	ColStatusCln  = "status_clean"
	ColCountry    = "country"
	ColSignupDate = "signup_date"

	ColYear     = "year"
	ColMonth    = "month"
	ColDay      = "day"
	ColHour     = "hour"
	ColWeekday  = "weekday"
	ColDateOnly = "date_only"

	MissingFlagSuffix = "__isna"
	OutlierSuffix     = "__is_outlier"
	WinsorSuffix      = "_winsor"
)

// Status values produced by normalization
const (
	StatusPaid   = "paid"
	StatusRefund = "refund"
	StatusCancel = "cancel"
)

// RequiredOrderColumns are the columns every raw orders table must carry
func RequiredOrderColumns() []string {
	return []string{ColOrderID, ColUserID, ColAmount, ColQuantity, ColCreatedAt, ColStatus}
}

// RequiredUserColumns are the columns every raw users table must carry
func RequiredUserColumns() []string {
	return []string{ColUserID, ColCountry, ColSignupDate}
}

// DefaultNAMarkers lists raw cell values read as null
func DefaultNAMarkers() []string {
	return []string{"", "NA", "N/A", "null", "None", "NULL", "NaN", "nan", "<NA>"}
}

// DefaultStatusMapping maps raw status synonyms to their canonical value
func DefaultStatusMapping() map[string]string {
	return map[string]string{
		"paid":      StatusPaid,
		"refund":    StatusRefund,
		"refunded":  StatusRefund,
		"returned":  StatusRefund,
		"cancel":    StatusCancel,
		"cancelled": StatusCancel,
		"canceled":  StatusCancel,
	}
}

// DefaultJoinKeyCandidates is the probe order for inferring a join key
func DefaultJoinKeyCandidates() []string {
	return []string{"user_id", "customer_id", "userid", "id"}
}
