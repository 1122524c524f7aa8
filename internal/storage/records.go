package storage

import (
	"time"

	"orderpulse/internal/config"
	"orderpulse/internal/table"
	"orderpulse/pkg/contracts/domain"
)

// Frame columns not listed in a record type are not persisted.

// OrderRecords converts a cleaned orders frame to parquet records
func OrderRecords(frame *table.Frame) []domain.CleanOrder {
	orderID := textAt(frame, config.ColOrderID)
	userID := textAt(frame, config.ColUserID)
	amount := valueAt[float64](frame, config.ColAmount)
	quantity := valueAt[int64](frame, config.ColQuantity)
	createdAt := textAt(frame, config.ColCreatedAt)
	status := textAt(frame, config.ColStatus)
	statusClean := textAt(frame, config.ColStatusCln)
	amountNA := flagAt(frame, config.ColAmount+config.MissingFlagSuffix)
	quantityNA := flagAt(frame, config.ColQuantity+config.MissingFlagSuffix)

	records := make([]domain.CleanOrder, frame.Len())
	for i := range records {
		records[i] = domain.CleanOrder{
			OrderID:      orderID(i),
			UserID:       userID(i),
			Amount:       amount(i),
			Quantity:     quantity(i),
			CreatedAt:    createdAt(i),
			Status:       status(i),
			StatusClean:  statusClean(i),
			AmountIsNA:   amountNA(i),
			QuantityIsNA: quantityNA(i),
		}
	}
	return records
}

// OrdersFrame rebuilds a cleaned orders frame from parquet records
func OrdersFrame(records []domain.CleanOrder) *table.Frame {
	n := len(records)
	orderID, userID := make([]*string, n), make([]*string, n)
	amount, quantity := make([]*float64, n), make([]*int64, n)
	createdAt, status, statusClean := make([]*string, n), make([]*string, n), make([]*string, n)
	amountNA, quantityNA := make([]bool, n), make([]bool, n)

	for i, r := range records {
		orderID[i], userID[i] = r.OrderID, r.UserID
		amount[i], quantity[i] = r.Amount, r.Quantity
		createdAt[i], status[i], statusClean[i] = r.CreatedAt, r.Status, r.StatusClean
		amountNA[i], quantityNA[i] = r.AmountIsNA, r.QuantityIsNA
	}

	return table.MustNew(
		table.FromPointers(config.ColOrderID, orderID),
		table.FromPointers(config.ColUserID, userID),
		table.FromPointers(config.ColAmount, amount),
		table.FromPointers(config.ColQuantity, quantity),
		table.FromPointers(config.ColCreatedAt, createdAt),
		table.FromPointers(config.ColStatus, status),
		table.FromPointers(config.ColStatusCln, statusClean),
		table.NewSeries(config.ColAmount+config.MissingFlagSuffix, amountNA, nil),
		table.NewSeries(config.ColQuantity+config.MissingFlagSuffix, quantityNA, nil),
	)
}

// UserRecords converts a users frame to parquet records
func UserRecords(frame *table.Frame) []domain.User {
	userID := textAt(frame, config.ColUserID)
	country := textAt(frame, config.ColCountry)
	signup := textAt(frame, config.ColSignupDate)

	records := make([]domain.User, frame.Len())
	for i := range records {
		records[i] = domain.User{UserID: userID(i), Country: country(i), SignupDate: signup(i)}
	}
	return records
}

// UsersFrame rebuilds a users frame from parquet records
func UsersFrame(records []domain.User) *table.Frame {
	n := len(records)
	userID, country, signup := make([]*string, n), make([]*string, n), make([]*string, n)
	for i, r := range records {
		userID[i], country[i], signup[i] = r.UserID, r.Country, r.SignupDate
	}
	return table.MustNew(
		table.FromPointers(config.ColUserID, userID),
		table.FromPointers(config.ColCountry, country),
		table.FromPointers(config.ColSignupDate, signup),
	)
}

// AnalyticsRecords converts the joined, enriched frame to parquet records.
// created_at must already be parsed; a text created_at is stored as null.
func AnalyticsRecords(frame *table.Frame) []domain.AnalyticsRow {
	orderID := textAt(frame, config.ColOrderID)
	userID := textAt(frame, config.ColUserID)
	amount := valueAt[float64](frame, config.ColAmount)
	quantity := valueAt[int64](frame, config.ColQuantity)
	status := textAt(frame, config.ColStatus)
	statusClean := textAt(frame, config.ColStatusCln)
	amountNA := flagAt(frame, config.ColAmount+config.MissingFlagSuffix)
	quantityNA := flagAt(frame, config.ColQuantity+config.MissingFlagSuffix)
	createdAt := valueAt[time.Time](frame, config.ColCreatedAt)
	year := valueAt[int64](frame, config.ColYear)
	month := valueAt[int64](frame, config.ColMonth)
	day := valueAt[int64](frame, config.ColDay)
	hour := valueAt[int64](frame, config.ColHour)
	weekday := valueAt[int64](frame, config.ColWeekday)
	dateOnly := textAt(frame, config.ColDateOnly)
	country := textAt(frame, config.ColCountry)
	signup := textAt(frame, config.ColSignupDate)
	winsor := valueAt[float64](frame, config.ColAmount+config.WinsorSuffix)
	outlier := flagAt(frame, config.ColAmount+config.OutlierSuffix)

	records := make([]domain.AnalyticsRow, frame.Len())
	for i := range records {
		var millis *int64
		if t := createdAt(i); t != nil {
			ms := t.UnixMilli()
			millis = &ms
		}
		records[i] = domain.AnalyticsRow{
			OrderID:         orderID(i),
			UserID:          userID(i),
			Amount:          amount(i),
			Quantity:        quantity(i),
			Status:          status(i),
			StatusClean:     statusClean(i),
			AmountIsNA:      amountNA(i),
			QuantityIsNA:    quantityNA(i),
			CreatedAt:       millis,
			Year:            year(i),
			Month:           month(i),
			Day:             day(i),
			Hour:            hour(i),
			Weekday:         weekday(i),
			DateOnly:        dateOnly(i),
			Country:         country(i),
			SignupDate:      signup(i),
			AmountWinsor:    winsor(i),
			AmountIsOutlier: outlier(i),
		}
	}
	return records
}

// AnalyticsFrame rebuilds the analytics frame from parquet records with a
// UTC timestamp created_at column.
func AnalyticsFrame(records []domain.AnalyticsRow) *table.Frame {
	n := len(records)
	var (
		orderID, userID, status, statusClean = make([]*string, n), make([]*string, n), make([]*string, n), make([]*string, n)
		dateOnly, country, signup            = make([]*string, n), make([]*string, n), make([]*string, n)
		amount, winsor                       = make([]*float64, n), make([]*float64, n)
		quantity, year, month, day           = make([]*int64, n), make([]*int64, n), make([]*int64, n), make([]*int64, n)
		hour, weekday                        = make([]*int64, n), make([]*int64, n)
		createdAt                            = make([]*time.Time, n)
		amountNA, quantityNA, outlier        = make([]bool, n), make([]bool, n), make([]bool, n)
	)

	for i, r := range records {
		orderID[i], userID[i], status[i], statusClean[i] = r.OrderID, r.UserID, r.Status, r.StatusClean
		dateOnly[i], country[i], signup[i] = r.DateOnly, r.Country, r.SignupDate
		amount[i], winsor[i] = r.Amount, r.AmountWinsor
		quantity[i], year[i], month[i], day[i] = r.Quantity, r.Year, r.Month, r.Day
		hour[i], weekday[i] = r.Hour, r.Weekday
		amountNA[i], quantityNA[i], outlier[i] = r.AmountIsNA, r.QuantityIsNA, r.AmountIsOutlier
		if r.CreatedAt != nil {
			t := time.UnixMilli(*r.CreatedAt).UTC()
			createdAt[i] = &t
		}
	}

	return table.MustNew(
		table.FromPointers(config.ColOrderID, orderID),
		table.FromPointers(config.ColUserID, userID),
		table.FromPointers(config.ColAmount, amount),
		table.FromPointers(config.ColQuantity, quantity),
		table.FromPointers(config.ColCreatedAt, createdAt),
		table.FromPointers(config.ColStatus, status),
		table.FromPointers(config.ColStatusCln, statusClean),
		table.NewSeries(config.ColAmount+config.MissingFlagSuffix, amountNA, nil),
		table.NewSeries(config.ColQuantity+config.MissingFlagSuffix, quantityNA, nil),
		table.FromPointers(config.ColCountry, country),
		table.FromPointers(config.ColSignupDate, signup),
		table.FromPointers(config.ColYear, year),
		table.FromPointers(config.ColMonth, month),
		table.FromPointers(config.ColDay, day),
		table.FromPointers(config.ColHour, hour),
		table.FromPointers(config.ColWeekday, weekday),
		table.FromPointers(config.ColDateOnly, dateOnly),
		table.FromPointers(config.ColAmount+config.WinsorSuffix, winsor),
		table.NewSeries(config.ColAmount+config.OutlierSuffix, outlier, nil),
	)
}

// textAt reads any column as nullable text; an absent column is all null
func textAt(frame *table.Frame, name string) func(int) *string {
	col, ok := frame.Column(name)
	if !ok {
		return func(int) *string { return nil }
	}
	return func(i int) *string {
		if col.IsNull(i) {
			return nil
		}
		v := col.Format(i)
		return &v
	}
}

// valueAt reads a typed column; an absent or differently typed column is all null
func valueAt[T any](frame *table.Frame, name string) func(int) *T {
	s := table.Lookup[T](frame, name)
	if s == nil {
		return func(int) *T { return nil }
	}
	return s.Ptr
}

func flagAt(frame *table.Frame, name string) func(int) bool {
	s := table.Lookup[bool](frame, name)
	return func(i int) bool {
		if s == nil {
			return false
		}
		v, _ := s.At(i)
		return v
	}
}
