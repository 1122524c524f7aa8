// Package storage persists pipeline artifacts.
//
// Intermediate and analysis-ready tables are snappy parquet files written
// with typed records from pkg/contracts/domain; OrderRecords, UserRecords and
// AnalyticsRecords convert table frames to those records and OrdersFrame,
// UsersFrame and AnalyticsFrame convert back. Run metadata is JSON validated
// against an embedded JSON Schema on every read and write. The optional
// Warehouse mirrors the analytics table and summary aggregates into SQLite.
//
// All writes replace their target atomically.
package storage
