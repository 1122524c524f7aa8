// Package config provides centralized configuration for the orderpulse pipeline.
// It loads settings from multiple sources, validates them and resolves every
// artifact path a run reads or writes.
//
// # Configuration Sources
//
// Configuration is layered in the following order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern ORDERPULSE_<SECTION>_<FIELD>:
//
//	ORDERPULSE_PATHS_BASE_DIR=/srv/orders
//	ORDERPULSE_OUTLIERS_IQR_K=3
//	ORDERPULSE_CLEANING_STATUS_MAPPING=chargeback:refund,paid:paid
//	ORDERPULSE_LOGGING_LEVEL=debug
//	ORDERPULSE_WAREHOUSE_ENABLED=true
//
// # Path Management
//
// Paths resolves the directory layout relative to the base directory:
//
//	data/raw/orders.csv, data/raw/users.csv        inputs
//	data/processed/*.parquet, _run_meta.json       stage artifacts
//	reports/summary.md, *.csv, summary.xlsx        human-facing outputs
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths, err := config.NewPaths(cfg)
package config
