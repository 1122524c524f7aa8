// Package dataprocessing implements the cleaning, joining and aggregation
// logic of the orders pipeline on top of package table.
//
// # Components
//
//  1. Readers: load raw CSV or XLSX tables with normalized headers and NA markers
//  2. Schema and quality: type coercion, required columns, missingness and duplicates
//  3. Status normalization: data-driven synonym mapping to canonical statuses
//  4. Safe join: left join with key inference and cardinality validation
//  5. Enrichment: timestamp parsing, calendar parts, IQR outlier flags, winsorization
//  6. Summarizer: headline business metrics with explicit "not available" results
//
// All functions are pure with respect to their input frames. Fatal data
// conditions are returned as *errors.AppError values (SCHEMA, EMPTY,
// CARDINALITY, NOT_FOUND); recoverable ones such as coercion failures are
// reported as counts for the caller to log.
//
// # Usage
//
//	orders, err := dataprocessing.ReadTable(path, dataprocessing.ReadOptions{NAMarkers: markers})
//	if err := dataprocessing.RequireColumns(orders, "orders", config.RequiredOrderColumns()); err != nil {
//	    return err
//	}
//	typed, coerced, err := dataprocessing.EnforceOrderSchema(orders)
package dataprocessing
