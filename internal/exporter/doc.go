// Package exporter writes the human-facing outputs of a run.
//
// CSVWriter writes the missingness and revenue-by-country tables,
// WorkbookWriter bundles the summary into an .xlsx workbook, and
// ReportRenderer renders the markdown "Summary of Findings and Caveats"
// report from a domain.Summary. Every figure that could not be computed
// renders as "N/A"; rendering never fails because a column was absent.
//
// Example usage:
//
//	renderer := exporter.NewReportRenderer(logger)
//	err := renderer.WriteReport(paths.SummaryReport, exporter.ReportInput{
//	    Summary:       summary,
//	    Meta:          meta,
//	    RunMetaPath:   paths.Relative(paths.RunMeta),
//	    AnalyticsPath: paths.Relative(paths.AnalyticsTable),
//	})
package exporter
