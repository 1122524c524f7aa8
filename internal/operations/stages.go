package operations

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"orderpulse/internal/config"
	"orderpulse/internal/dataprocessing"
	"orderpulse/internal/errors"
	"orderpulse/internal/exporter"
	"orderpulse/internal/infrastructure"
	"orderpulse/internal/storage"
	"orderpulse/internal/table"
	"orderpulse/internal/validation"
	"orderpulse/pkg/contracts"
	"orderpulse/pkg/contracts/domain"
)

// Summary source notes shown in the report
const (
	SourceAnalytics = config.AnalyticsTableFile + " (joined, analysis-ready)"
	SourceMerged    = config.OrdersCleanFile + " + " + config.UsersCleanFile + " (merged)"
	SourceOrders    = config.OrdersCleanFile + " (no join key)"
)

// StepDeps are the collaborators shared by the pipeline steps
type StepDeps struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	Metrics *infrastructure.PipelineMetrics
}

func (d StepDeps) logger(stepID string) *slog.Logger {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("step", stepID))
}

// NewPipelineSteps returns the clean, analytics and summary steps in run order
func NewPipelineSteps(deps StepDeps) []Step {
	return []Step{
		NewCleanStep(deps),
		NewAnalyticsStep(deps),
		NewSummaryStep(deps),
	}
}

// RegisterPipelineSteps registers the pipeline steps with registry
func RegisterPipelineSteps(registry *Registry, deps StepDeps) error {
	for _, step := range NewPipelineSteps(deps) {
		if err := registry.Register(step); err != nil {
			return err
		}
	}
	return nil
}

func (d StepDeps) openWarehouse(ctx context.Context, logger *slog.Logger) (*storage.Warehouse, error) {
	wh := d.Config.Warehouse
	if wh.Driver == storage.DriverPostgres {
		return storage.OpenWarehouseDriver(ctx, storage.DriverPostgres, wh.DSN, logger)
	}
	return storage.OpenWarehouse(ctx, d.Paths.WarehouseDB, logger)
}

// warehouseTarget is the warehouse location recorded in run metadata; the
// Postgres DSN is left out because it may carry credentials
func (d StepDeps) warehouseTarget() string {
	if d.Config.Warehouse.Driver == storage.DriverPostgres {
		return storage.DriverPostgres
	}
	return d.Paths.Relative(d.Paths.WarehouseDB)
}

// checkContext converts a cancelled or expired context into a cancellation error
func checkContext(ctx context.Context, stepID string) error {
	if err := ctx.Err(); err != nil {
		return NewCancellationError(stepID)
	}
	return nil
}

// CleanStep reads the raw tables, enforces the schema and writes the cleaned tables
type CleanStep struct {
	BaseStage
	deps      StepDeps
	logger    *slog.Logger
	csv       *exporter.CSVWriter
	metaStore *storage.RunMetaStore
	validator *validation.FileValidator
	now       func() time.Time
}

// NewCleanStep creates the ingest and clean step
func NewCleanStep(deps StepDeps) *CleanStep {
	logger := deps.logger(StepIDClean)
	return &CleanStep{
		BaseStage: NewBaseStage(StepIDClean, StepNameClean),
		deps:      deps,
		logger:    logger,
		csv:       exporter.NewCSVWriter(deps.Paths, logger),
		metaStore: storage.NewRunMetaStore(deps.Paths.RunMeta),
		validator: validation.NewFileValidator(logger),
		now:       time.Now,
	}
}

// RequiredInputs returns the raw orders and users tables
func (s *CleanStep) RequiredInputs() []DataRequirement {
	return []DataRequirement{
		{Name: "orders_raw", Path: s.deps.Paths.OrdersRaw},
		{Name: "users_raw", Path: s.deps.Paths.UsersRaw},
	}
}

// ProducedOutputs returns the cleaned tables, run metadata and missingness report
func (s *CleanStep) ProducedOutputs() []DataOutput {
	return []DataOutput{
		{Name: "orders_clean", Path: s.deps.Paths.OrdersClean},
		{Name: "users", Path: s.deps.Paths.UsersClean},
		{Name: "run_meta", Path: s.deps.Paths.RunMeta},
		{Name: "missingness", Path: s.deps.Paths.Missingness},
	}
}

// Validate checks that both inputs are readable table files and that the
// output directories are writable
func (s *CleanStep) Validate(state *OperationState) error {
	p := s.deps.Paths
	if err := s.validator.ValidateInputs(p.OrdersRaw, p.UsersRaw); err != nil {
		return err
	}
	for _, dir := range []string{p.ProcessedDir, p.ReportsDir} {
		if err := s.validator.ValidateOutputDirectory(dir); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs stage one
func (s *CleanStep) Execute(ctx context.Context, state *OperationState) error {
	cfg, paths := s.deps.Config, s.deps.Paths
	opts := dataprocessing.ReadOptions{NAMarkers: cfg.Cleaning.NAMarkers}

	var orders, users *table.Frame
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = dataprocessing.ReadTable(paths.OrdersRaw, opts)
		return err
	})
	g.Go(func() (err error) {
		users, err = dataprocessing.ReadTable(paths.UsersRaw, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := dataprocessing.RequireColumns(orders, "orders", config.RequiredOrderColumns()); err != nil {
		return err
	}
	if err := dataprocessing.RequireColumns(users, "users", config.RequiredUserColumns()); err != nil {
		return err
	}
	if err := dataprocessing.AssertNonEmpty(orders, "orders"); err != nil {
		return err
	}
	if err := dataprocessing.AssertNonEmpty(users, "users"); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "raw tables loaded",
		slog.Int("orders_rows", orders.Len()),
		slog.Int("users_rows", users.Len()),
		slog.Any("orders_columns", orders.Names()))
	infrastructure.RecordRows(ctx, s.deps.Metrics, s.ID(), "orders_raw", orders.Len())
	infrastructure.RecordRows(ctx, s.deps.Metrics, s.ID(), "users_raw", users.Len())

	if err := s.csv.WriteMissingness(paths.Missingness, dataprocessing.MissingnessReport(orders)); err != nil {
		return err
	}

	cleanOrders, coerced, err := dataprocessing.EnforceOrderSchema(orders)
	if err != nil {
		return err
	}
	s.logCoercions(ctx, coerced)

	normalizer, err := dataprocessing.NewStatusNormalizer(dataprocessing.StatusMapping(cfg.Cleaning.StatusMapping))
	if err != nil {
		return errors.NewConfigError("invalid status mapping", err)
	}
	cleanOrders, unknown, err := normalizer.NormalizeColumn(cleanOrders, config.ColStatus, config.ColStatusCln)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		s.logger.InfoContext(ctx, "unmapped status values passed through",
			slog.Any("values", unknown))
	}

	cleanOrders, err = dataprocessing.AddMissingFlags(cleanOrders, config.ColAmount, config.ColQuantity)
	if err != nil {
		return err
	}
	cleanUsers, err := dataprocessing.EnforceUserSchema(users)
	if err != nil {
		return err
	}

	orderDups, err := dataprocessing.CountDuplicates(cleanOrders, config.ColOrderID)
	if err != nil {
		return err
	}
	userDups, err := dataprocessing.CountDuplicates(cleanUsers, config.ColUserID)
	if err != nil {
		return err
	}
	if orderDups == 0 {
		s.logger.InfoContext(ctx, "no duplicate order_id rows detected")
	} else {
		s.logger.WarnContext(ctx, "duplicate order_id rows detected", slog.Int("duplicates", orderDups))
	}
	infrastructure.RecordDuplicates(ctx, s.deps.Metrics, "orders."+config.ColOrderID, orderDups)
	infrastructure.RecordDuplicates(ctx, s.deps.Metrics, "users."+config.ColUserID, userDups)

	if err := checkContext(ctx, s.ID()); err != nil {
		return err
	}

	if err := storage.WriteParquet(paths.OrdersClean, storage.OrderRecords(cleanOrders)); err != nil {
		return err
	}
	if err := storage.WriteParquet(paths.UsersClean, storage.UserRecords(cleanUsers)); err != nil {
		return err
	}
	infrastructure.RecordRows(ctx, s.deps.Metrics, s.ID(), "orders_clean", cleanOrders.Len())
	infrastructure.RecordRows(ctx, s.deps.Metrics, s.ID(), "users", cleanUsers.Len())

	meta := &domain.RunMeta{
		RunID:         state.ID,
		TimestampUTC:  s.now().UTC().Format(time.RFC3339),
		FormatVersion: contracts.ArtifactFormatVersion,
		RowCounts: domain.RowCounts{
			OrdersRaw:   orders.Len(),
			UsersRaw:    users.Len(),
			OrdersClean: cleanOrders.Len(),
			UsersClean:  cleanUsers.Len(),
		},
		Missing: map[string]map[string]int{
			"orders": dataprocessing.MissingCounts(orders),
			"users":  dataprocessing.MissingCounts(users),
		},
		Coerced: map[string]int(coerced),
		Duplicates: map[string]int{
			"orders." + config.ColOrderID: orderDups,
			"users." + config.ColUserID:   userDups,
		},
		Paths: map[string]string{
			"orders_clean": paths.Relative(paths.OrdersClean),
			"users":        paths.Relative(paths.UsersClean),
			"missingness":  paths.Relative(paths.Missingness),
		},
	}
	if err := s.metaStore.Save(meta); err != nil {
		return err
	}

	state.SetContext(ContextKeyRowCounts, meta.RowCounts)
	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("orders_clean", cleanOrders.Len())
		st.SetMetadata("users", cleanUsers.Len())
		st.SetMetadata("duplicate_order_ids", orderDups)
	}

	s.logger.InfoContext(ctx, "cleaned tables written",
		slog.String("orders_clean", paths.Relative(paths.OrdersClean)),
		slog.String("users", paths.Relative(paths.UsersClean)),
		slog.String("run_meta", paths.Relative(paths.RunMeta)))
	return nil
}

func (s *CleanStep) logCoercions(ctx context.Context, coerced dataprocessing.CoercionStats) {
	columns := make([]string, 0, len(coerced))
	for col := range coerced {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for _, col := range columns {
		n := coerced[col]
		if n == 0 {
			continue
		}
		s.logger.WarnContext(ctx, "unparseable values set to null",
			slog.String("column", col),
			slog.Int("count", n))
		infrastructure.RecordCoerced(ctx, s.deps.Metrics, col, n)
	}
}

// AnalyticsStep joins the cleaned tables and derives the analysis columns
type AnalyticsStep struct {
	BaseStage
	deps      StepDeps
	logger    *slog.Logger
	metaStore *storage.RunMetaStore
	now       func() time.Time
}

// NewAnalyticsStep creates the join and enrich step
func NewAnalyticsStep(deps StepDeps) *AnalyticsStep {
	return &AnalyticsStep{
		BaseStage: NewBaseStage(StepIDAnalytics, StepNameAnalytics),
		deps:      deps,
		logger:    deps.logger(StepIDAnalytics),
		metaStore: storage.NewRunMetaStore(deps.Paths.RunMeta),
		now:       time.Now,
	}
}

// RequiredInputs returns the cleaned tables
func (s *AnalyticsStep) RequiredInputs() []DataRequirement {
	return []DataRequirement{
		{Name: "orders_clean", Path: s.deps.Paths.OrdersClean},
		{Name: "users", Path: s.deps.Paths.UsersClean},
		{Name: "run_meta", Path: s.deps.Paths.RunMeta, Optional: true},
	}
}

// ProducedOutputs returns the analytics table
func (s *AnalyticsStep) ProducedOutputs() []DataOutput {
	outputs := []DataOutput{
		{Name: "analytics", Path: s.deps.Paths.AnalyticsTable},
		{Name: "run_meta", Path: s.deps.Paths.RunMeta},
	}
	if wh := s.deps.Config.Warehouse; wh.Enabled && wh.Driver != storage.DriverPostgres {
		outputs = append(outputs, DataOutput{Name: "warehouse", Path: s.deps.Paths.WarehouseDB})
	}
	return outputs
}

// Execute runs stage two
func (s *AnalyticsStep) Execute(ctx context.Context, state *OperationState) error {
	cfg, paths := s.deps.Config, s.deps.Paths

	orders, users, err := readCleanTables(paths)
	if err != nil {
		return err
	}
	if err := dataprocessing.AssertNonEmpty(orders, "orders_clean"); err != nil {
		return err
	}

	frame, unparsed, err := dataprocessing.ParseDatetime(orders, config.ColCreatedAt)
	if err != nil {
		return err
	}
	if unparsed > 0 {
		s.logger.WarnContext(ctx, "unparseable created_at values set to null", slog.Int("count", unparsed))
		infrastructure.RecordCoerced(ctx, s.deps.Metrics, config.ColCreatedAt, unparsed)
	}
	if frame, err = dataprocessing.AddTimeParts(frame, config.ColCreatedAt); err != nil {
		return err
	}

	join := &domain.JoinInfo{
		Validate:    cfg.Join.Validate,
		RightSuffix: cfg.Join.RightSuffix,
	}
	key, ok := dataprocessing.ResolveJoinKey(frame, users, cfg.Join.KeyCandidates)
	if ok {
		result, err := dataprocessing.SafeLeftJoin(frame, users, dataprocessing.JoinOptions{
			On:          key,
			Validate:    dataprocessing.Cardinality(cfg.Join.Validate),
			RightSuffix: cfg.Join.RightSuffix,
		})
		if err != nil {
			return err
		}
		frame = result.Frame
		join.Performed = true
		join.Key = key
		join.MatchedRows = result.MatchedRows
		state.SetContext(ContextKeyJoinKey, key)
		s.logger.InfoContext(ctx, "orders joined to users",
			slog.String("key", key),
			slog.Int("matched_rows", result.MatchedRows),
			slog.Int("rows", frame.Len()))
	} else {
		s.logger.WarnContext(ctx, "no join key found, user columns left null",
			slog.Any("candidates", cfg.Join.KeyCandidates))
		frame = withNullColumns(frame, users, cfg.Join.RightSuffix)
	}

	frame, outliers, err := dataprocessing.AddOutlierColumns(frame, config.ColAmount,
		cfg.Outliers.IQRK, cfg.Outliers.WinsorLow, cfg.Outliers.WinsorHigh)
	if err != nil {
		return err
	}

	if err := checkContext(ctx, s.ID()); err != nil {
		return err
	}

	records := storage.AnalyticsRecords(frame)
	if err := storage.WriteParquet(paths.AnalyticsTable, records); err != nil {
		return err
	}
	infrastructure.RecordRows(ctx, s.deps.Metrics, s.ID(), "analytics", len(records))

	if cfg.Warehouse.Enabled {
		if err := s.writeWarehouse(ctx, records); err != nil {
			return err
		}
	}

	rows := frame.Len()
	missingTS := 0
	if ts := table.Lookup[time.Time](frame, config.ColCreatedAt); ts != nil {
		missingTS = ts.NullCount()
	}

	update := func(meta *domain.RunMeta) {
		meta.RowCounts.AnalyticsTable = &rows
		meta.Join = join
		meta.JoinMatchRate = nil
		if join.Performed {
			meta.JoinMatchRate = matchRates(frame, join.MatchedRows)
		}
		if meta.MissingTimestamps == nil {
			meta.MissingTimestamps = map[string]int{}
		}
		meta.MissingTimestamps[domain.MissingTimestampKey] = missingTS
		meta.Outliers = outlierInfo(cfg.Outliers, outliers)
		if meta.Paths == nil {
			meta.Paths = map[string]string{}
		}
		meta.Paths["analytics"] = paths.Relative(paths.AnalyticsTable)
		if cfg.Warehouse.Enabled {
			meta.Paths["warehouse"] = s.deps.warehouseTarget()
		}
	}
	if err := s.updateMeta(ctx, state, update); err != nil {
		return err
	}

	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("analytics_rows", rows)
		st.SetMetadata("join_performed", join.Performed)
		st.SetMetadata("outliers_flagged", outliers.Flagged)
	}

	s.logger.InfoContext(ctx, "analytics table written",
		slog.String("path", paths.Relative(paths.AnalyticsTable)),
		slog.Int("rows", rows),
		slog.Int("created_at_missing", missingTS),
		slog.Int("outliers_flagged", outliers.Flagged))
	return nil
}

// updateMeta applies fn to the stored run metadata, starting a new document
// when the clean step's one is absent.
func (s *AnalyticsStep) updateMeta(ctx context.Context, state *OperationState, fn func(*domain.RunMeta)) error {
	_, err := s.metaStore.Update(fn)
	if err == nil {
		return nil
	}
	if !errors.IsType(err, errors.ErrTypeNotFound) {
		return err
	}

	s.logger.WarnContext(ctx, "run metadata not found, starting a new document",
		slog.String("path", s.metaStore.Path()))
	meta := &domain.RunMeta{
		RunID:         state.ID,
		TimestampUTC:  s.now().UTC().Format(time.RFC3339),
		FormatVersion: contracts.ArtifactFormatVersion,
		Missing:       map[string]map[string]int{},
	}
	fn(meta)
	return s.metaStore.Save(meta)
}

func (s *AnalyticsStep) writeWarehouse(ctx context.Context, records []domain.AnalyticsRow) error {
	wh, err := s.deps.openWarehouse(ctx, s.logger)
	if err != nil {
		return err
	}
	defer wh.Close()
	return wh.ReplaceAnalytics(ctx, records)
}

// withNullColumns appends every column of right as an all-null text column,
// suffixing names that already exist in left.
func withNullColumns(left, right *table.Frame, suffix string) *table.Frame {
	out := left
	for _, name := range right.Names() {
		target := name
		if out.Has(target) {
			target = name + suffix
		}
		out = out.MustWith(table.NewNullSeries[string](target, left.Len()))
	}
	return out
}

// matchRates computes join coverage as proportions of all rows
func matchRates(frame *table.Frame, matched int) *domain.JoinMatchRate {
	rows := frame.Len()
	rates := &domain.JoinMatchRate{}
	if rows == 0 {
		return rates
	}
	rates.KeyMatchRate = float64(matched) / float64(rows)
	if col, ok := frame.Column(config.ColCountry); ok {
		country := dataprocessing.AsText(col)
		rates.CountryMatchRate = float64(rows-country.NullCount()) / float64(rows)
	}
	return rates
}

func outlierInfo(cfg config.OutlierConfig, report dataprocessing.OutlierReport) *domain.OutlierInfo {
	info := &domain.OutlierInfo{
		Column:     config.ColAmount,
		IQRK:       cfg.IQRK,
		Flagged:    report.Flagged,
		WinsorLow:  cfg.WinsorLow,
		WinsorHigh: cfg.WinsorHigh,
	}
	if b := report.IQR; b != nil {
		info.IQRLower, info.IQRUpper = &b.Lower, &b.Upper
	}
	if b := report.Winsor; b != nil {
		info.WinsorLower, info.WinsorUpper = &b.Lower, &b.Upper
	}
	return info
}

// SummaryStep computes the headline metrics and writes the report artifacts
type SummaryStep struct {
	BaseStage
	deps       StepDeps
	logger     *slog.Logger
	metaStore  *storage.RunMetaStore
	summarizer *dataprocessing.Summarizer
	csv        *exporter.CSVWriter
	workbook   *exporter.WorkbookWriter
	report     *exporter.ReportRenderer
}

// NewSummaryStep creates the summarize step
func NewSummaryStep(deps StepDeps) *SummaryStep {
	logger := deps.logger(StepIDSummary)
	return &SummaryStep{
		BaseStage:  NewBaseStage(StepIDSummary, StepNameSummary),
		deps:       deps,
		logger:     logger,
		metaStore:  storage.NewRunMetaStore(deps.Paths.RunMeta),
		summarizer: dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig()),
		csv:        exporter.NewCSVWriter(deps.Paths, logger),
		workbook:   exporter.NewWorkbookWriter(logger),
		report:     exporter.NewReportRenderer(logger),
	}
}

// RequiredInputs lists the analytics table and its fallback; each is optional
// on its own, Validate requires one of them.
func (s *SummaryStep) RequiredInputs() []DataRequirement {
	return []DataRequirement{
		{Name: "analytics", Path: s.deps.Paths.AnalyticsTable, Optional: true},
		{Name: "orders_clean", Path: s.deps.Paths.OrdersClean, Optional: true},
		{Name: "users", Path: s.deps.Paths.UsersClean, Optional: true},
		{Name: "run_meta", Path: s.deps.Paths.RunMeta, Optional: true},
	}
}

// ProducedOutputs returns the report artifacts
func (s *SummaryStep) ProducedOutputs() []DataOutput {
	p := s.deps.Paths
	return []DataOutput{
		{Name: "report", Path: p.SummaryReport},
		{Name: "metrics", Path: p.SummaryMetrics},
		{Name: "revenue_by_country", Path: p.RevenueByCountry},
		{Name: "workbook", Path: p.SummaryWorkbook},
	}
}

// Validate requires the analytics table or the cleaned orders
func (s *SummaryStep) Validate(state *OperationState) error {
	p := s.deps.Paths
	if config.FileExists(p.AnalyticsTable) || config.FileExists(p.OrdersClean) {
		return nil
	}
	return errors.NewNotFoundError(p.AnalyticsTable + " or " + p.OrdersClean)
}

// Execute runs stage three
func (s *SummaryStep) Execute(ctx context.Context, state *OperationState) error {
	cfg, paths := s.deps.Config, s.deps.Paths

	frame, source, err := s.loadFrame(ctx)
	if err != nil {
		return err
	}

	meta, err := s.metaStore.Load()
	if err != nil {
		s.logger.WarnContext(ctx, "run metadata unavailable, continuing without it",
			slog.String("path", paths.Relative(paths.RunMeta)),
			slog.String("error", err.Error()))
		meta = nil
	}

	summary := s.summarizer.Compute(ctx, frame, meta, source)

	if err := checkContext(ctx, s.ID()); err != nil {
		return err
	}

	if err := exporter.WriteMetricsJSON(paths.SummaryMetrics, summary); err != nil {
		return err
	}
	if err := s.csv.WriteRevenueByCountry(paths.RevenueByCountry, summary.RevenueByCountry); err != nil {
		return err
	}
	if err := s.workbook.Write(paths.SummaryWorkbook, summary, missingEntries(meta, frame)); err != nil {
		return err
	}
	if err := s.report.WriteReport(paths.SummaryReport, exporter.ReportInput{
		Summary:       summary,
		Meta:          meta,
		RunMetaPath:   paths.Relative(paths.RunMeta),
		AnalyticsPath: paths.Relative(paths.AnalyticsTable),
	}); err != nil {
		return err
	}

	if cfg.Warehouse.Enabled {
		wh, err := s.deps.openWarehouse(ctx, s.logger)
		if err != nil {
			return err
		}
		err = wh.ReplaceSummary(ctx, summary.RevenueByCountry, summary.MonthlyRevenue)
		wh.Close()
		if err != nil {
			return err
		}
	}

	state.SetContext(ContextKeySummary, summary)
	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("rows", summary.Rows)
		st.SetMetadata("source", source)
	}

	s.logger.InfoContext(ctx, "summary written",
		slog.String("report", paths.Relative(paths.SummaryReport)),
		slog.String("metrics", paths.Relative(paths.SummaryMetrics)),
		slog.String("source", source))
	return nil
}

// loadFrame prefers the analytics table and falls back to merging the
// cleaned orders with users.
func (s *SummaryStep) loadFrame(ctx context.Context) (*table.Frame, string, error) {
	paths := s.deps.Paths

	if config.FileExists(paths.AnalyticsTable) {
		records, err := storage.ReadParquet[domain.AnalyticsRow](paths.AnalyticsTable)
		if err != nil {
			return nil, "", err
		}
		return storage.AnalyticsFrame(records), SourceAnalytics, nil
	}

	s.logger.WarnContext(ctx, "analytics table not found, merging cleaned tables",
		slog.String("path", paths.Relative(paths.AnalyticsTable)))

	orders, users, err := readCleanTables(paths)
	if err != nil {
		return nil, "", err
	}

	joinCfg := s.deps.Config.Join
	key, ok := dataprocessing.ResolveJoinKey(orders, users, joinCfg.KeyCandidates)
	if !ok {
		return orders, SourceOrders, nil
	}
	result, err := dataprocessing.SafeLeftJoin(orders, users, dataprocessing.JoinOptions{
		On:          key,
		Validate:    dataprocessing.Cardinality(joinCfg.Validate),
		RightSuffix: joinCfg.RightSuffix,
	})
	if err != nil {
		return nil, "", err
	}
	return result.Frame, SourceMerged, nil
}

// readCleanTables loads the stage one outputs as frames
func readCleanTables(paths *config.Paths) (*table.Frame, *table.Frame, error) {
	orderRecords, err := storage.ReadParquet[domain.CleanOrder](paths.OrdersClean)
	if err != nil {
		return nil, nil, err
	}
	userRecords, err := storage.ReadParquet[domain.User](paths.UsersClean)
	if err != nil {
		return nil, nil, err
	}
	return storage.OrdersFrame(orderRecords), storage.UsersFrame(userRecords), nil
}

// missingEntries rebuilds the raw orders missingness from run metadata,
// sorted by proportion then column name. Without metadata the summary frame
// itself is profiled.
func missingEntries(meta *domain.RunMeta, frame *table.Frame) []dataprocessing.MissingEntry {
	if meta == nil || meta.Missing["orders"] == nil || meta.RowCounts.OrdersRaw == 0 {
		return dataprocessing.MissingnessReport(frame)
	}

	total := float64(meta.RowCounts.OrdersRaw)
	entries := make([]dataprocessing.MissingEntry, 0, len(meta.Missing["orders"]))
	for col, n := range meta.Missing["orders"] {
		entries = append(entries, dataprocessing.MissingEntry{
			Column:     col,
			Missing:    n,
			Proportion: float64(n) / total,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Proportion != entries[j].Proportion {
			return entries[i].Proportion > entries[j].Proportion
		}
		return entries[i].Column < entries[j].Column
	})
	return entries
}
