// Package archive enumerates the entries of zip-format containers (jar, war,
// ear, zip, ...).
//
// Two strategies sit behind the Reader interface:
//   - OpenFile reads a container that lives on a filesystem. It has random
//     access, so it reads the central directory up front and reports
//     ErrNotArchive before any entry is returned when the file is not a zip.
//   - OpenStream reads a container nested inside another container's entry.
//     It walks local file headers sequentially and cannot seek. A stream that
//     does not start with a local file header simply has no entries, so a
//     malformed nested archive usually yields nothing instead of an error.
//
// Callers must not assume the two strategies report failures the same way.
//
// Entry names are converted to the platform path separator and directory
// entries are never returned. An entry's stream must be closed before Next
// is called again.
package archive
