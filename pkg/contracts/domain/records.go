package domain

// CleanOrder is one row of orders_clean.parquet.
// created_at keeps its raw text here; it is parsed when the analytics table is built.
type CleanOrder struct {
	OrderID      *string  `parquet:"name=order_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"order_id"`
	UserID       *string  `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"user_id"`
	Amount       *float64 `parquet:"name=amount, type=DOUBLE, repetitiontype=OPTIONAL" json:"amount"`
	Quantity     *int64   `parquet:"name=quantity, type=INT64, repetitiontype=OPTIONAL" json:"quantity"`
	CreatedAt    *string  `parquet:"name=created_at, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"created_at"`
	Status       *string  `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"status"`
	StatusClean  *string  `parquet:"name=status_clean, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"status_clean"`
	AmountIsNA   bool     `parquet:"name=amount__isna, type=BOOLEAN" json:"amount__isna"`
	QuantityIsNA bool     `parquet:"name=quantity__isna, type=BOOLEAN" json:"quantity__isna"`
}

// User is one row of users.parquet
type User struct {
	UserID     *string `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"user_id"`
	Country    *string `parquet:"name=country, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"country"`
	SignupDate *string `parquet:"name=signup_date, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"signup_date"`
}

// AnalyticsRow is one row of analytics_table.parquet: an order, at most one
// matching user, calendar parts and the amount outlier treatment.
type AnalyticsRow struct {
	OrderID      *string  `parquet:"name=order_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"order_id"`
	UserID       *string  `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"user_id"`
	Amount       *float64 `parquet:"name=amount, type=DOUBLE, repetitiontype=OPTIONAL" json:"amount"`
	Quantity     *int64   `parquet:"name=quantity, type=INT64, repetitiontype=OPTIONAL" json:"quantity"`
	Status       *string  `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"status"`
	StatusClean  *string  `parquet:"name=status_clean, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"status_clean"`
	AmountIsNA   bool     `parquet:"name=amount__isna, type=BOOLEAN" json:"amount__isna"`
	QuantityIsNA bool     `parquet:"name=quantity__isna, type=BOOLEAN" json:"quantity__isna"`

	// CreatedAt is milliseconds since the Unix epoch, UTC
	CreatedAt *int64  `parquet:"name=created_at, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL" json:"created_at"`
	Year      *int64  `parquet:"name=year, type=INT64, repetitiontype=OPTIONAL" json:"year"`
	Month     *int64  `parquet:"name=month, type=INT64, repetitiontype=OPTIONAL" json:"month"`
	Day       *int64  `parquet:"name=day, type=INT64, repetitiontype=OPTIONAL" json:"day"`
	Hour      *int64  `parquet:"name=hour, type=INT64, repetitiontype=OPTIONAL" json:"hour"`
	Weekday   *int64  `parquet:"name=weekday, type=INT64, repetitiontype=OPTIONAL" json:"weekday"`
	DateOnly  *string `parquet:"name=date_only, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"date_only"`

	Country    *string `parquet:"name=country, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"country"`
	SignupDate *string `parquet:"name=signup_date, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL" json:"signup_date"`

	AmountWinsor    *float64 `parquet:"name=amount_winsor, type=DOUBLE, repetitiontype=OPTIONAL" json:"amount_winsor"`
	AmountIsOutlier bool     `parquet:"name=amount__is_outlier, type=BOOLEAN" json:"amount__is_outlier"`
}
