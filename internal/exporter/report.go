package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"

	"orderpulse/internal/errors"
	"orderpulse/pkg/contracts/domain"
)

const notAvailable = "N/A"

// ReportInput is everything the markdown report draws on
type ReportInput struct {
	Summary *domain.Summary
	// Meta is optional run metadata
	Meta *domain.RunMeta
	// RunMetaPath and AnalyticsPath are shown in the technical notes
	RunMetaPath   string
	AnalyticsPath string
}

// reportView holds the rendered lines of the report
type reportView struct {
	Source         string
	TopCountry     string
	Growth         string
	AOV            string
	Refunds        string
	TimeWindow     string
	WinsorDef      string
	MissingCreated string
	Duplicates     string
	JoinCoverage   string
	Outliers       []string
	RunMetaPath    string
	AnalyticsPath  string
}

var reportTemplate = template.Must(template.New("summary").Parse(`# Summary of Findings and Caveats

_Source used: **{{.Source}}**_

## Key Findings
- **Finding 1 (quantified)**: {{.TopCountry}}
- **Finding 2 (quantified)**: {{.Growth}}
- **Finding 3 (quantified)**: {{.AOV}}
- **Finding 4 (quantified)**: {{.Refunds}}

## Definitions
- **Revenue**: Sum of ` + "`amount`" + ` over orders, excluding rows where ` + "`status_clean == \"refund\"`" + `
- **AOV (Average Order Value)**: Mean of ` + "`amount`" + ` over the same non-refund orders
- **Refund rate**: Proportion of all orders where ` + "`status_clean == \"refund\"`" + `
- **Time window**: {{.TimeWindow}}
- **Winsorized amount**: {{.WinsorDef}}

## Data Quality Caveats

### Missingness
- {{.MissingCreated}}

### Duplicates
- {{.Duplicates}}

### Join Coverage
- {{.JoinCoverage}}

### Outliers
{{- range .Outliers}}
- {{.}}
{{- end}}

### Other Issues
- Status values were normalized (trimmed, lowercased, synonyms such as refunded mapped to refund).

## Next Questions
- How does refund rate vary by month?
- Are there seasonal patterns in order volume or revenue?
- Which segments (country, signup cohort) drive high-value orders?
- What features predict refunds or high AOV?

## Technical Notes
- **Run Metadata**: ` + "`{{.RunMetaPath}}`" + `
- **Processed outputs**: ` + "`{{.AnalyticsPath}}`" + `
`))

// ReportRenderer renders the markdown summary report
type ReportRenderer struct {
	logger *slog.Logger
}

// NewReportRenderer creates a renderer
func NewReportRenderer(logger *slog.Logger) *ReportRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportRenderer{logger: logger}
}

// Render produces the report text. Figures missing from the summary render as N/A.
func (r *ReportRenderer) Render(in ReportInput) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, buildView(in)); err != nil {
		return "", errors.NewAppError(errors.ErrTypeValidation, "failed to render report", err)
	}
	return buf.String(), nil
}

// WriteReport renders the report to path
func (r *ReportRenderer) WriteReport(path string, in ReportInput) error {
	text, err := r.Render(in)
	if err != nil {
		return err
	}
	if err := writeFile(path, []byte(text)); err != nil {
		return err
	}
	r.logger.Info("Report written", slog.String("path", path), slog.Int("bytes", len(text)))
	return nil
}

// WriteMetricsJSON writes the summary figures as indented JSON
func WriteMetricsJSON(path string, summary *domain.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.NewStorageError("failed to encode summary metrics", err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for "+path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewStorageError("failed to write "+path, err)
	}
	return nil
}

func buildView(in ReportInput) reportView {
	s := in.Summary
	v := reportView{
		Source:         s.Source,
		TopCountry:     topCountryLine(s),
		Growth:         growthLine(s),
		AOV:            aovLine(s),
		Refunds:        refundLine(s),
		TimeWindow:     notAvailable,
		WinsorDef:      "Amount capped at the 1st and 99th percentiles to reduce outlier impact on visualizations",
		MissingCreated: missingCreatedLine(s, in.Meta),
		Duplicates:     duplicatesLine(s),
		JoinCoverage:   joinCoverageLine(s),
		Outliers:       outlierLines(s),
		RunMetaPath:    in.RunMetaPath,
		AnalyticsPath:  in.AnalyticsPath,
	}
	if s.TimeWindow != nil {
		v.TimeWindow = fmt.Sprintf("%s → %s (UTC)", s.TimeWindow.Start, s.TimeWindow.End)
	}
	if o := s.Outliers; o != nil {
		v.WinsorDef = fmt.Sprintf("Amount capped at the %s and %s percentiles to reduce outlier impact on visualizations",
			ordinal(percentile(o.LowQuantile)), ordinal(percentile(o.HighQuantile)))
	}
	if in.Meta != nil && in.Meta.Paths != nil && in.Meta.Paths["analytics"] != "" {
		v.AnalyticsPath = in.Meta.Paths["analytics"]
	}
	return v
}

func topCountryLine(s *domain.Summary) string {
	if s.TopCountry == nil {
		return notAvailable
	}
	return fmt.Sprintf("%s accounts for %.1f%% of total revenue with %s",
		s.TopCountry.Country, s.TopCountry.SharePct, FormatMoney(s.TopCountry.Revenue))
}

func growthLine(s *domain.Summary) string {
	g := s.Growth
	if g == nil {
		return notAvailable
	}
	if g.Pct != nil {
		return fmt.Sprintf("Monthly revenue changed by %+.1f%% from %s to %s", *g.Pct, g.FromMonth, g.ToMonth)
	}
	return fmt.Sprintf("Monthly revenue moved from %s in %s to %s in %s",
		FormatMoney(g.FromRevenue), g.FromMonth, FormatMoney(g.ToRevenue), g.ToMonth)
}

func aovLine(s *domain.Summary) string {
	return fmt.Sprintf("Average order value (AOV) is %s, with median %s",
		FormatMoneyPtr(s.AOVMean), FormatMoneyPtr(s.AOVMedian))
}

// refundLine prefers the per-country spread over the overall rate
func refundLine(s *domain.Summary) string {
	if sp := s.RefundSpread; sp != nil {
		return fmt.Sprintf("Refund rate differs by %.1f percentage points between %s and %s", sp.DiffPP, sp.High, sp.Low)
	}
	if r := s.Refunds; r != nil {
		return fmt.Sprintf("Overall refund rate is %.1f%% (%d/%d)", r.RatePct, r.Refunds, r.Total)
	}
	return notAvailable
}

func missingCreatedLine(s *domain.Summary, meta *domain.RunMeta) string {
	if s.MissingCreatedAtPct != nil {
		return fmt.Sprintf("%.1f%% of rows have missing or unparseable created_at (stored as null)", *s.MissingCreatedAtPct)
	}
	if meta != nil {
		if n, ok := meta.MissingTimestamps[domain.MissingTimestampKey]; ok {
			return fmt.Sprintf("%s = %d", domain.MissingTimestampKey, n)
		}
	}
	return notAvailable
}

func duplicatesLine(s *domain.Summary) string {
	switch {
	case s.DuplicateOrderIDs == nil:
		return notAvailable
	case *s.DuplicateOrderIDs == 0:
		return "No duplicate order_id rows detected"
	default:
		return fmt.Sprintf("Found %d duplicate order_id rows", *s.DuplicateOrderIDs)
	}
}

func joinCoverageLine(s *domain.Summary) string {
	j := s.JoinCoverage
	switch {
	case j == nil:
		return notAvailable
	case j.FromMeta:
		return fmt.Sprintf("country_match_rate = %.2f", j.Rate)
	default:
		return fmt.Sprintf("%.1f%% country non-null after join", j.Pct)
	}
}

func outlierLines(s *domain.Summary) []string {
	o := s.Outliers
	if o == nil {
		return []string{notAvailable, notAvailable}
	}
	lines := []string{
		fmt.Sprintf("%d rows above the %s percentile amount (%s) flagged as outliers",
			o.AboveUpper, ordinal(percentile(o.HighQuantile)), FormatMoney(o.Upper)),
	}
	if o.IQRFlagged != nil {
		lines = append(lines, fmt.Sprintf("%d rows fall outside the IQR fences (amount__is_outlier)", *o.IQRFlagged))
	}
	lines = append(lines, fmt.Sprintf("Winsorized amount caps values at %s=%s and %s=%s for cleaner charts",
		percentileLabel(o.LowQuantile), FormatMoney(o.Lower), percentileLabel(o.HighQuantile), FormatMoney(o.Upper)))
	return lines
}
