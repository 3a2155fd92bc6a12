// Package model defines the data structures shared across the import
// pipeline, the history database, and the report writers.
package model
