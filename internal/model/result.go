package model

import (
	"fmt"
	"path/filepath"

	"github.com/nao1215/classver/internal/classfile"
)

// ScanTarget is one user supplied path, a file or a directory, to scan.
type ScanTarget string

// Result is the outcome of scanning one item: a Success for every class file
// whose version was read, a Failure for anything that could not be scanned.
//
// Result is a closed sum type; the only implementations are Success and
// Failure. Use Match or a type switch over both to consume it.
type Result interface {
	fmt.Stringer
	isResult()
}

// Success reports the version of one class file.
type Success struct {
	// ClassName is the class file path inside its container, using the
	// platform separator, e.g. com/foo/Bar.class.
	ClassName string `json:"className"`

	// ContainerPath is the absolute path of the directory or archive that
	// holds the class. Nested archives are appended with the platform
	// separator, e.g. /libs/outer.jar/inner.jar.
	ContainerPath string `json:"containerPath"`

	// Version is the class file version and its Java release.
	Version classfile.Version `json:"version"`
}

// Failure describes an item that could not be scanned and why.
type Failure struct {
	// Message is a human readable description of the failure.
	Message string `json:"message"`
}

func (Success) isResult() {}
func (Failure) isResult() {}

// Path returns the full location of the class, container path and class
// name joined by the platform separator.
func (s Success) Path() string {
	return s.ContainerPath + string(filepath.Separator) + s.ClassName
}

// String implements fmt.Stringer.
func (s Success) String() string {
	return s.Version.String() + " " + s.Path()
}

// String implements fmt.Stringer.
func (f Failure) String() string {
	return f.Message
}

// NewFailure builds a Failure from a format string.
func NewFailure(format string, args ...any) Failure {
	return Failure{Message: fmt.Sprintf(format, args...)}
}

// Match calls onSuccess or onFailure depending on the variant of r and
// returns its value. It panics if r is nil.
func Match[T any](r Result, onSuccess func(Success) T, onFailure func(Failure) T) T {
	switch v := r.(type) {
	case Success:
		return onSuccess(v)
	case Failure:
		return onFailure(v)
	default:
		panic(fmt.Sprintf("model: unexpected result type %T", r))
	}
}

// Partition splits results into successes and failures, keeping order.
func Partition(results []Result) ([]Success, []Failure) {
	var successes []Success
	var failures []Failure
	for _, r := range results {
		Match(r,
			func(s Success) struct{} {
				successes = append(successes, s)
				return struct{}{}
			},
			func(f Failure) struct{} {
				failures = append(failures, f)
				return struct{}{}
			},
		)
	}
	return successes, failures
}
