package archive

import (
	"slices"
	"strings"
)

// ClassExt is the extension of Java class files. It is always handled as a
// class file, whether or not it is part of an ExtensionSet.
const ClassExt = "class"

// DefaultExtensions are the container extensions used when none are given.
var DefaultExtensions = []string{"jar"}

// Ext returns the extension of the last element of name, without the dot.
//
// A name without a dot, ending with a dot, or whose only dot is its first
// character (a hidden file such as ".profile") has no extension and Ext
// returns the empty string.
func Ext(name string) string {
	base := name
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}

	i := strings.LastIndexByte(base, '.')
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return base[i+1:]
}

// IsClass reports whether ext names a class file, ignoring case.
func IsClass(ext string) bool {
	return strings.EqualFold(ext, ClassExt)
}

// ExtensionSet is an immutable, case-insensitive set of file extensions
// that mark a file or entry as a container to open.
type ExtensionSet struct {
	exts map[string]struct{}
}

// NewExtensionSet builds an ExtensionSet. Surrounding spaces and a leading
// dot are trimmed; empty values are dropped.
func NewExtensionSet(exts ...string) ExtensionSet {
	set := ExtensionSet{exts: make(map[string]struct{}, len(exts))}
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext == "" {
			continue
		}
		set.exts[strings.ToLower(ext)] = struct{}{}
	}
	return set
}

// ParseExtensions builds an ExtensionSet from a comma separated list such
// as "jar, war,ear".
func ParseExtensions(list string) ExtensionSet {
	return NewExtensionSet(strings.Split(list, ",")...)
}

// Contains reports whether ext is in the set. The empty extension is never
// contained.
func (s ExtensionSet) Contains(ext string) bool {
	if ext == "" {
		return false
	}
	_, ok := s.exts[strings.ToLower(ext)]
	return ok
}

// Len returns the number of extensions in the set.
func (s ExtensionSet) Len() int {
	return len(s.exts)
}

// Strings returns the extensions, lower-cased and sorted.
func (s ExtensionSet) Strings() []string {
	out := make([]string, 0, len(s.exts))
	for ext := range s.exts {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}
