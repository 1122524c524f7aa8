package domain

// Summary holds every headline figure of a run as plain values.
// A nil pointer or empty slice means the figure is not available ("N/A").
type Summary struct {
	GeneratedAt string `json:"generated_at"`
	RunID       string `json:"run_id,omitempty"`
	Source      string `json:"source"`
	Rows        int    `json:"rows"`

	TimeWindow *TimeWindow `json:"time_window,omitempty"`

	Revenue   *float64 `json:"revenue,omitempty"`
	AOVMean   *float64 `json:"aov_mean,omitempty"`
	AOVMedian *float64 `json:"aov_median,omitempty"`

	TopCountry       *CountryShare    `json:"top_country,omitempty"`
	RevenueByCountry []CountryRevenue `json:"revenue_by_country,omitempty"`

	MonthlyRevenue []MonthRevenue `json:"monthly_revenue,omitempty"`
	Growth         *Growth        `json:"growth,omitempty"`

	Refunds      *RefundStats  `json:"refunds,omitempty"`
	RefundSpread *RefundSpread `json:"refund_spread,omitempty"`

	JoinCoverage        *JoinCoverage `json:"join_coverage,omitempty"`
	MissingCreatedAtPct *float64      `json:"missing_created_at_pct,omitempty"`
	DuplicateOrderIDs   *int          `json:"duplicate_order_ids,omitempty"`
	Outliers            *OutlierStats `json:"outliers,omitempty"`
}

// TimeWindow is the inclusive UTC date range covered by created_at
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CountryShare is the country with the largest non-refund revenue
type CountryShare struct {
	Country  string  `json:"country"`
	Revenue  float64 `json:"revenue"`
	SharePct float64 `json:"share_pct"`
}

// CountryRevenue is one row of the revenue by country breakdown
type CountryRevenue struct {
	Country string  `json:"country"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// MonthRevenue is non-refund revenue for one calendar month (YYYY-MM)
type MonthRevenue struct {
	Month   string  `json:"month"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// Growth compares the two most recent months. Pct is nil when the earlier
// month had zero revenue.
type Growth struct {
	FromMonth   string   `json:"from_month"`
	ToMonth     string   `json:"to_month"`
	FromRevenue float64  `json:"from_revenue"`
	ToRevenue   float64  `json:"to_revenue"`
	Pct         *float64 `json:"pct,omitempty"`
}

// RefundStats counts refunds over all rows
type RefundStats struct {
	Refunds int     `json:"refunds"`
	Total   int     `json:"total"`
	RatePct float64 `json:"rate_pct"`
}

// RefundSpread is the gap between the highest and lowest per-country refund rate
type RefundSpread struct {
	High    string  `json:"high"`
	Low     string  `json:"low"`
	HighPct float64 `json:"high_pct"`
	LowPct  float64 `json:"low_pct"`
	DiffPP  float64 `json:"diff_pp"`
}

// JoinCoverage is taken from run metadata when recorded there, as a rate in
// [0, 1]; otherwise it is computed as the percent of rows with a country.
type JoinCoverage struct {
	FromMeta bool    `json:"from_meta"`
	Rate     float64 `json:"rate,omitempty"`
	Pct      float64 `json:"pct,omitempty"`
}

// OutlierStats summarizes amount outliers over non-refund rows. Lower and
// Upper are the LowQuantile and HighQuantile of the present amounts.
type OutlierStats struct {
	LowQuantile  float64 `json:"low_quantile"`
	HighQuantile float64 `json:"high_quantile"`
	Lower        float64 `json:"lower"`
	Upper        float64 `json:"upper"`
	AboveUpper   int     `json:"above_upper"`
	IQRFlagged   *int    `json:"iqr_flagged,omitempty"`
}
