// Package model defines the data passed between the scanner, the scan
// controller and the report writers.
//
// This package contains the following main types:
//   - Result: the outcome of scanning one class file or one failed item,
//     either a Success or a Failure
//   - Progress: a snapshot of the scan counters
//   - Summary: the aggregated view written by the report writers
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The scanner, pipeline, database and report packages all need
// these types, so centralizing them prevents import cycles.
//
// All types are plain values and are serializable to JSON for report output.
package model
