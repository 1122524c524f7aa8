package domain

// RunMeta is the per-run metadata document written next to the processed artifacts
type RunMeta struct {
	RunID             string                    `json:"run_id"`
	TimestampUTC      string                    `json:"timestamp_utc"`
	FormatVersion     string                    `json:"format_version"`
	RowCounts         RowCounts                 `json:"row_counts"`
	Missing           map[string]map[string]int `json:"missing"`
	Coerced           map[string]int            `json:"coerced,omitempty"`
	Duplicates        map[string]int            `json:"duplicates,omitempty"`
	Join              *JoinInfo                 `json:"join,omitempty"`
	JoinMatchRate     *JoinMatchRate            `json:"join_match_rate,omitempty"`
	MissingTimestamps map[string]int            `json:"missing_timestamps,omitempty"`
	Outliers          *OutlierInfo              `json:"outliers,omitempty"`
	Paths             map[string]string         `json:"paths,omitempty"`
}

// RowCounts records table sizes at each stage boundary
type RowCounts struct {
	OrdersRaw      int  `json:"orders_raw"`
	UsersRaw       int  `json:"users_raw"`
	OrdersClean    int  `json:"orders_clean"`
	UsersClean     int  `json:"users_clean"`
	AnalyticsTable *int `json:"analytics_table,omitempty"`
}

// JoinInfo describes how orders were joined to users
type JoinInfo struct {
	Performed   bool   `json:"performed"`
	Key         string `json:"key,omitempty"`
	Validate    string `json:"validate,omitempty"`
	RightSuffix string `json:"right_suffix,omitempty"`
	MatchedRows int    `json:"matched_rows"`
}

// JoinMatchRate holds join coverage as proportions in [0, 1]
type JoinMatchRate struct {
	KeyMatchRate     float64 `json:"key_match_rate"`
	CountryMatchRate float64 `json:"country_match_rate"`
}

// OutlierInfo records the bounds used for the amount column
type OutlierInfo struct {
	Column      string   `json:"column"`
	IQRK        float64  `json:"iqr_k"`
	IQRLower    *float64 `json:"iqr_lower,omitempty"`
	IQRUpper    *float64 `json:"iqr_upper,omitempty"`
	Flagged     int      `json:"flagged"`
	WinsorLow   float64  `json:"winsor_low"`
	WinsorHigh  float64  `json:"winsor_high"`
	WinsorLower *float64 `json:"winsor_lower,omitempty"`
	WinsorUpper *float64 `json:"winsor_upper,omitempty"`
}

// MissingTimestampKey is the MissingTimestamps entry for the analytics created_at column
const MissingTimestampKey = "analytics.created_at_missing"
