package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"orderpulse/internal/config"
	"orderpulse/internal/table"
	"orderpulse/pkg/contracts/domain"
)

// Summarizer computes the headline business metrics of an analytics frame.
type Summarizer struct {
	logger *slog.Logger
	config SummarizerConfig
	now    func() time.Time
}

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	// LowQuantile and HighQuantile bound the amount distribution in the outlier figures
	LowQuantile  float64
	HighQuantile float64
}

// DefaultSummarizerConfig returns the 1st/99th percentile configuration
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{LowQuantile: 0.01, HighQuantile: 0.99}
}

// NewSummarizer creates a summarizer. A nil logger uses slog.Default().
func NewSummarizer(logger *slog.Logger, cfg SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HighQuantile <= 0 || cfg.HighQuantile > 1 || cfg.LowQuantile < 0 || cfg.LowQuantile >= cfg.HighQuantile {
		cfg = DefaultSummarizerConfig()
	}
	return &Summarizer{logger: logger, config: cfg, now: time.Now}
}

// summaryInputs are the optional columns the metrics draw on; nil means absent
type summaryInputs struct {
	amount    *table.Series[float64]
	status    *table.Series[string]
	country   *table.Series[string]
	createdAt *table.Series[time.Time]
	outlier   *table.Series[bool]
}

// Compute derives every metric that the frame's columns allow. Missing
// columns produce nil figures rather than errors. When meta records that no
// join was performed, country-based figures are not computed.
func (s *Summarizer) Compute(ctx context.Context, frame *table.Frame, meta *domain.RunMeta, source string) *domain.Summary {
	in := s.inputs(frame, meta)
	rows := frame.Len()

	summary := &domain.Summary{
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
		Source:      source,
		Rows:        rows,
	}
	if meta != nil {
		summary.RunID = meta.RunID
	}

	keep := nonRefundMask(in.status, rows)

	summary.TimeWindow = timeWindow(in.createdAt)

	if in.amount != nil {
		revenue, amounts := revenueOf(in.amount, keep)
		summary.Revenue = &revenue
		if len(amounts) > 0 {
			mean := meanOf(amounts)
			median, _ := Median(amounts)
			summary.AOVMean = &mean
			summary.AOVMedian = &median
		}
		summary.Outliers = s.outlierStats(amounts, in.outlier)

		if in.country != nil {
			summary.RevenueByCountry = revenueByCountry(in.amount, in.country, keep)
			if len(summary.RevenueByCountry) > 0 && revenue != 0 {
				top := summary.RevenueByCountry[0]
				summary.TopCountry = &domain.CountryShare{
					Country:  top.Country,
					Revenue:  top.Revenue,
					SharePct: top.Revenue / revenue * 100,
				}
			}
		}

		if in.createdAt != nil {
			summary.MonthlyRevenue = monthlyRevenue(in.amount, in.createdAt, keep)
			summary.Growth = growthOf(summary.MonthlyRevenue)
		}
	}

	if in.status != nil && rows > 0 {
		refunds := 0
		for i := 0; i < rows; i++ {
			if isRefund(in.status, i) {
				refunds++
			}
		}
		summary.Refunds = &domain.RefundStats{
			Refunds: refunds,
			Total:   rows,
			RatePct: float64(refunds) / float64(rows) * 100,
		}
		if in.country != nil {
			summary.RefundSpread = refundSpread(in.status, in.country)
		}
	}

	summary.JoinCoverage = joinCoverage(meta, in.country, rows)

	if in.createdAt != nil && rows > 0 {
		pct := float64(in.createdAt.NullCount()) / float64(rows) * 100
		summary.MissingCreatedAtPct = &pct
	}

	if frame.Has(config.ColOrderID) {
		if dups, err := CountDuplicates(frame, config.ColOrderID); err == nil {
			summary.DuplicateOrderIDs = &dups
		}
	}

	s.logger.InfoContext(ctx, "summary metrics computed",
		slog.Int("rows", rows),
		slog.String("source", source),
		slog.Bool("has_amount", in.amount != nil),
		slog.Bool("has_status", in.status != nil),
		slog.Bool("has_country", in.country != nil),
		slog.Bool("has_created_at", in.createdAt != nil))

	return summary
}

// inputs resolves the optional columns, coercing text where needed
func (s *Summarizer) inputs(frame *table.Frame, meta *domain.RunMeta) summaryInputs {
	var in summaryInputs

	if col, ok := frame.Column(config.ColAmount); ok {
		in.amount, _ = ToFloat(col)
	}
	if col, ok := frame.Column(config.ColStatusCln); ok {
		in.status = AsText(col)
	}
	joined := meta == nil || meta.Join == nil || meta.Join.Performed
	if col, ok := frame.Column(config.ColCountry); ok && joined {
		in.country = AsText(col)
	}
	if frame.Has(config.ColCreatedAt) {
		parsed, _, err := ParseDatetime(frame, config.ColCreatedAt)
		if err == nil {
			in.createdAt = table.Lookup[time.Time](parsed, config.ColCreatedAt)
		}
	}
	in.outlier = table.Lookup[bool](frame, config.ColAmount+config.OutlierSuffix)

	return in
}

func isRefund(status *table.Series[string], i int) bool {
	v, ok := status.At(i)
	return ok && v == config.StatusRefund
}

// nonRefundMask is true for rows counted as revenue. Without a status column every row counts.
func nonRefundMask(status *table.Series[string], rows int) []bool {
	keep := make([]bool, rows)
	for i := range keep {
		keep[i] = status == nil || !isRefund(status, i)
	}
	return keep
}

// revenueOf sums present kept amounts, treating nulls as zero, and returns the present kept values
func revenueOf(amount *table.Series[float64], keep []bool) (float64, []float64) {
	total := 0.0
	var present []float64
	for i, k := range keep {
		if !k {
			continue
		}
		if v, ok := amount.At(i); ok {
			total += v
			present = append(present, v)
		}
	}
	return total, present
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func timeWindow(ts *table.Series[time.Time]) *domain.TimeWindow {
	if ts == nil {
		return nil
	}
	var lo, hi time.Time
	found := false
	for _, t := range ts.Present() {
		if !found || t.Before(lo) {
			lo = t
		}
		if !found || t.After(hi) {
			hi = t
		}
		found = true
	}
	if !found {
		return nil
	}
	return &domain.TimeWindow{Start: lo.Format("2006-01-02"), End: hi.Format("2006-01-02")}
}

// revenueByCountry groups kept rows with a country, sorted by revenue
// descending then country name. Rows without a country are not a group.
func revenueByCountry(amount *table.Series[float64], country *table.Series[string], keep []bool) []domain.CountryRevenue {
	groups := map[string]*domain.CountryRevenue{}
	for i, k := range keep {
		if !k {
			continue
		}
		c, ok := country.At(i)
		if !ok {
			continue
		}
		g, exists := groups[c]
		if !exists {
			g = &domain.CountryRevenue{Country: c}
			groups[c] = g
		}
		g.Orders++
		if v, ok := amount.At(i); ok {
			g.Revenue += v
		}
	}

	out := make([]domain.CountryRevenue, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// monthlyRevenue sums kept amounts by UTC calendar month, oldest first
func monthlyRevenue(amount *table.Series[float64], ts *table.Series[time.Time], keep []bool) []domain.MonthRevenue {
	groups := map[string]*domain.MonthRevenue{}
	for i, k := range keep {
		if !k {
			continue
		}
		t, ok := ts.At(i)
		if !ok {
			continue
		}
		month := t.UTC().Format("2006-01")
		g, exists := groups[month]
		if !exists {
			g = &domain.MonthRevenue{Month: month}
			groups[month] = g
		}
		g.Orders++
		if v, ok := amount.At(i); ok {
			g.Revenue += v
		}
	}

	out := make([]domain.MonthRevenue, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// growthOf compares the two most recent months. A zero earlier month yields no percentage.
func growthOf(months []domain.MonthRevenue) *domain.Growth {
	if len(months) < 2 {
		return nil
	}
	prev, last := months[len(months)-2], months[len(months)-1]
	g := &domain.Growth{
		FromMonth:   prev.Month,
		ToMonth:     last.Month,
		FromRevenue: prev.Revenue,
		ToRevenue:   last.Revenue,
	}
	if prev.Revenue != 0 {
		pct := (last.Revenue - prev.Revenue) / prev.Revenue * 100
		g.Pct = &pct
	}
	return g
}

// refundSpread needs at least two countries among rows with a country
func refundSpread(status, country *table.Series[string]) *domain.RefundSpread {
	type agg struct{ refunds, total int }
	groups := map[string]*agg{}
	for i := 0; i < country.Len(); i++ {
		c, ok := country.At(i)
		if !ok {
			continue
		}
		g, exists := groups[c]
		if !exists {
			g = &agg{}
			groups[c] = g
		}
		g.total++
		if isRefund(status, i) {
			g.refunds++
		}
	}
	if len(groups) < 2 {
		return nil
	}

	type rate struct {
		country string
		pct     float64
	}
	rates := make([]rate, 0, len(groups))
	for c, g := range groups {
		rates = append(rates, rate{c, float64(g.refunds) / float64(g.total) * 100})
	}
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].pct != rates[j].pct {
			return rates[i].pct > rates[j].pct
		}
		return rates[i].country < rates[j].country
	})

	hi, lo := rates[0], rates[len(rates)-1]
	return &domain.RefundSpread{
		High:    hi.country,
		Low:     lo.country,
		HighPct: hi.pct,
		LowPct:  lo.pct,
		DiffPP:  hi.pct - lo.pct,
	}
}

// joinCoverage prefers the rate recorded in run metadata
func joinCoverage(meta *domain.RunMeta, country *table.Series[string], rows int) *domain.JoinCoverage {
	if meta != nil && meta.JoinMatchRate != nil {
		return &domain.JoinCoverage{FromMeta: true, Rate: meta.JoinMatchRate.CountryMatchRate}
	}
	if country == nil {
		return nil
	}
	pct := 0.0
	if rows > 0 {
		pct = float64(rows-country.NullCount()) / float64(rows) * 100
	}
	return &domain.JoinCoverage{Pct: pct}
}

func (s *Summarizer) outlierStats(amounts []float64, flags *table.Series[bool]) *domain.OutlierStats {
	if len(amounts) == 0 {
		return nil
	}
	sorted := make([]float64, len(amounts))
	copy(sorted, amounts)
	sort.Float64s(sorted)

	stats := &domain.OutlierStats{
		LowQuantile:  s.config.LowQuantile,
		HighQuantile: s.config.HighQuantile,
		Lower:        quantileSorted(sorted, s.config.LowQuantile),
		Upper:        quantileSorted(sorted, s.config.HighQuantile),
	}
	for _, v := range amounts {
		if v > stats.Upper {
			stats.AboveUpper++
		}
	}
	if flags != nil {
		n := 0
		for _, f := range flags.Present() {
			if f {
				n++
			}
		}
		stats.IQRFlagged = &n
	}
	return stats
}
