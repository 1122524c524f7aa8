// Package table provides a small column-oriented frame used by the cleaning,
// join and summary stages.
//
// A Frame holds named Series[T] columns of string, float64, int64, bool or
// time.Time values, each with a validity mask so that missing values are
// explicit rather than encoded as sentinels. Transforms never modify a frame
// in place; they derive new columns and attach them with With.
package table
