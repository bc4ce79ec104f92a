// Package classfile reads the version header of Java class files and maps it
// to the Java release that produced it.
//
// Only the first eight bytes of a class file are ever consumed: the magic
// number, the minor version and the major version, in that order. Nothing
// past the header is parsed.
//
// Design decision: Class major versions above the last entry of the table
// are reported as unknown instead of being extrapolated. The release numbering
// changed after Java 1.8 (9, 10, 11, ...), so a linear guess produces wrong
// labels such as "1.10".
package classfile
