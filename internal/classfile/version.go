package classfile

import (
	"cmp"
	"fmt"
)

// UnknownJava marks a class major version no known Java release maps to.
const UnknownJava int32 = -1

const (
	// firstTableMajor is the class major version emitted by Java 1.2.
	firstTableMajor = 46
	// lastTableMajor is the class major version emitted by Java 1.9.
	lastTableMajor = 53
	// java10Major is the class major version shared by Java 1.0 and 1.1.
	java10Major = 45
	// java10MaxMinor is the highest class minor version Java 1.0 emitted.
	java10MaxMinor = 3
)

// Version is the (class major, class minor) pair read from a class file plus
// its derived Java release.
//
// Two Versions are the same version when their class pair matches; the Java
// release is derived and takes no part in identity or ordering.
type Version struct {
	// ClassMajor is the class file format major version.
	ClassMajor uint16 `json:"classMajor"`

	// ClassMinor is the class file format minor version.
	ClassMinor uint16 `json:"classMinor"`

	// JavaMajor is the Java release major number, or UnknownJava.
	JavaMajor int32 `json:"javaMajor"`

	// JavaMinor is the Java release minor number, or UnknownJava.
	JavaMinor int32 `json:"javaMinor"`
}

// releaseTable holds the Java 1.2 to 1.9 versions indexed by
// classMajor-firstTableMajor. Class minor is always zero in the table;
// Classify copies the entry and sets the observed minor.
var releaseTable = func() [lastTableMajor - firstTableMajor + 1]Version {
	var t [lastTableMajor - firstTableMajor + 1]Version
	for i := range t {
		major := uint16(firstTableMajor + i)
		t[i] = Version{
			ClassMajor: major,
			JavaMajor:  1,
			JavaMinor:  int32(major) - 44,
		}
	}
	return t
}()

// Classify maps a class file version pair to its Java release.
// It never fails: unmapped pairs come back with JavaMajor and JavaMinor set
// to UnknownJava and the raw pair preserved.
func Classify(classMajor, classMinor uint16) Version {
	switch {
	case classMajor == java10Major:
		javaMinor := int32(1)
		if classMinor <= java10MaxMinor {
			javaMinor = 0
		}
		return Version{
			ClassMajor: classMajor,
			ClassMinor: classMinor,
			JavaMajor:  1,
			JavaMinor:  javaMinor,
		}
	case classMajor >= firstTableMajor && classMajor <= lastTableMajor:
		v := releaseTable[classMajor-firstTableMajor]
		v.ClassMinor = classMinor
		return v
	default:
		return Version{
			ClassMajor: classMajor,
			ClassMinor: classMinor,
			JavaMajor:  UnknownJava,
			JavaMinor:  UnknownJava,
		}
	}
}

// Known reports whether a Java release maps to the version.
func (v Version) Known() bool {
	return v.JavaMajor != UnknownJava
}

// Equal reports whether v and o carry the same class file version pair.
func (v Version) Equal(o Version) bool {
	return v.ClassMajor == o.ClassMajor && v.ClassMinor == o.ClassMinor
}

// Compare orders versions by class major, then class minor.
// It returns -1, 0 or +1 and can be passed to slices.SortFunc.
func Compare(a, b Version) int {
	if c := cmp.Compare(a.ClassMajor, b.ClassMajor); c != 0 {
		return c
	}
	return cmp.Compare(a.ClassMinor, b.ClassMinor)
}

// Label returns the short release label used in tables, e.g. "1.8".
// Unknown versions render as the raw class pair prefixed with "cls ".
func (v Version) Label() string {
	if !v.Known() {
		return fmt.Sprintf("cls %d.%d", v.ClassMajor, v.ClassMinor)
	}
	return fmt.Sprintf("%d.%d", v.JavaMajor, v.JavaMinor)
}

// String returns the release, e.g. "1.8", or a description carrying the raw
// class version when no release is known.
func (v Version) String() string {
	if !v.Known() {
		return fmt.Sprintf("Unknown. Class version: %d.%d", v.ClassMajor, v.ClassMinor)
	}
	return v.Label()
}
