// Package database aggregates the results of a scan in an in-memory SQLite
// database.
//
// ResultDB stores every Success and Failure drained from a scan and answers
// the three questions a report asks: which versions does each container
// hold, which containers hold each version, and what is the full list of
// classes ordered by version.
//
// Design decision: The database lives in memory (modernc.org/sqlite, CGO
// free) and disappears with the process. Nothing from a scan is persisted
// between runs; SQLite is used for its grouping and ordering, not storage.
package database
