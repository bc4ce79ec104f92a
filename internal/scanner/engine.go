package scanner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/nao1215/classver/internal/archive"
	"github.com/nao1215/classver/internal/classfile"
	"github.com/nao1215/classver/internal/model"
)

// Filesystem is the part of a billy filesystem the engine reads from.
type Filesystem interface {
	billy.Basic
	billy.Dir
}

// Engine scans a fixed set of targets for class files.
//
// Scan runs once on the caller's goroutine. Drain, FilesScanned and
// ClassFilesScanned are safe to call from any goroutine at any time.
//
// The counters are written only by the scanning goroutine. Readers get an
// eventually consistent value that may trail the scan but is never torn;
// they never take a lock and never slow the scan down.
type Engine struct {
	// targets are the user supplied paths, scanned in order.
	targets []model.ScanTarget

	// exts marks files and entries that are opened as containers.
	exts archive.ExtensionSet

	// fs is the filesystem the targets live on.
	fs Filesystem

	// logger for structured logging.
	logger *slog.Logger

	queue *Queue

	filesScanned   atomic.Int64
	classesScanned atomic.Int64

	// used flips from false (fresh) to true (used) on the first Scan.
	used atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithFilesystem sets the filesystem targets are resolved against.
// The default is the host filesystem.
func WithFilesystem(fs Filesystem) Option {
	return func(e *Engine) {
		e.fs = fs
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine for the given targets. exts lists the extensions of
// files and archive entries to open as containers; class files are always
// read whether or not "class" is part of exts.
func New(targets []model.ScanTarget, exts archive.ExtensionSet, opts ...Option) *Engine {
	e := &Engine{
		targets: slices.Clone(targets),
		exts:    exts,
		queue:   NewQueue(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.fs == nil {
		e.fs = osfs.Default
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Scan walks every target and publishes results until all targets are done.
//
// Problems with the scanned data are published as model.Failure results and
// never returned. Scan returns ErrAlreadyUsed, without scanning, when called
// more than once, and ctx.Err() when ctx is cancelled; cancellation is
// checked between items, so a scan stops after the item in progress.
func (e *Engine) Scan(ctx context.Context) error {
	if !e.used.CompareAndSwap(false, true) {
		return ErrAlreadyUsed
	}

	e.logger.Debug("scan started", "targets", len(e.targets), "extensions", e.exts.Strings())

	for _, target := range e.targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.scanTarget(ctx, string(target)); err != nil {
			return err
		}
	}

	e.logger.Debug("scan finished",
		"files", e.FilesScanned(),
		"classes", e.ClassFilesScanned(),
	)
	return nil
}

// Drain removes and returns every result published since the previous call.
// It never blocks and returns nil when nothing is pending.
func (e *Engine) Drain() []model.Result {
	return e.queue.Drain()
}

// FilesScanned returns the number of filesystem files, class files and
// containers, scanned so far.
func (e *Engine) FilesScanned() int64 {
	return e.filesScanned.Load()
}

// ClassFilesScanned returns the number of class file versions read so far.
func (e *Engine) ClassFilesScanned() int64 {
	return e.classesScanned.Load()
}

// scanTarget handles one user supplied path.
func (e *Engine) scanTarget(ctx context.Context, target string) error {
	path := absPath(target)

	info, err := e.fs.Stat(path)
	if err != nil {
		e.fail("Unable to find file: %s", path)
		return nil
	}

	if !info.IsDir() && info.Mode().IsRegular() {
		ext := archive.Ext(info.Name())
		if !archive.IsClass(ext) && !e.exts.Contains(ext) {
			e.fail("Ignoring invalid input: %s", target)
			return nil
		}
	}

	return e.visit(ctx, path, info)
}

// visit scans a directory or a regular file. Other file types (devices,
// sockets, pipes) are skipped.
func (e *Engine) visit(ctx context.Context, path string, info os.FileInfo) error {
	switch {
	case info.IsDir():
		return e.scanDir(ctx, path)
	case info.Mode().IsRegular():
		return e.scanFile(ctx, path, info)
	default:
		e.logger.Debug("skipping non-regular file", "path", path, "mode", info.Mode().String())
		return nil
	}
}

// scanDir scans the sub-directories of dir and the files whose extension
// is in the extension set, in name order.
func (e *Engine) scanDir(ctx context.Context, dir string) error {
	children, err := e.fs.ReadDir(dir)
	if err != nil {
		e.logger.Debug("failed to list directory", "path", dir, "error", err)
		e.fail("Unable to read the directory: %s", dir)
		return nil
	}

	slices.SortFunc(children, func(a, b os.FileInfo) int {
		return strings.Compare(a.Name(), b.Name())
	})

	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, child.Name())

		// Stat follows symbolic links, ReadDir does not.
		info, err := e.fs.Stat(path)
		if err != nil {
			e.fail("Unable to find file: %s", path)
			continue
		}
		if !info.IsDir() && !e.exts.Contains(archive.Ext(child.Name())) {
			continue
		}

		if err := e.visit(ctx, path, info); err != nil {
			return err
		}
	}
	return nil
}

// scanFile scans a class file or a container on the filesystem. Each call
// counts as one scanned file whatever the outcome.
func (e *Engine) scanFile(ctx context.Context, path string, info os.FileInfo) error {
	defer e.filesScanned.Add(1)

	if archive.IsClass(archive.Ext(info.Name())) {
		e.scanClassFile(path)
		return nil
	}
	return e.scanContainerFile(ctx, path, info.Size())
}

// scanClassFile reads the version of a class file on the filesystem. The
// containing directory is the container.
func (e *Engine) scanClassFile(path string) {
	f, err := e.fs.Open(path)
	if err != nil {
		e.fail("IO Error: %v, while reading: %s", err, path)
		return
	}
	defer e.closeStream(f, path)

	e.readClass(f, filepath.Base(path), filepath.Dir(path), path)
}

// scanContainerFile opens an archive on the filesystem and scans its
// entries. The file is closed on every path out of this function.
func (e *Engine) scanContainerFile(ctx context.Context, path string, size int64) error {
	f, err := e.fs.Open(path)
	if err != nil {
		e.fail("IO Error: %v, while reading: %s", err, path)
		return nil
	}
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Debug("failed to close container", "path", path, "error", err)
			e.fail("Unable to close zip file: %s", path)
		}
	}()

	r, err := archive.OpenFile(f, size)
	if err != nil {
		if errors.Is(err, archive.ErrNotArchive) {
			e.logger.Debug("not an archive", "path", path, "error", err)
			e.fail("Unable to open file: %s", path)
		} else {
			e.fail("IO Error: %v, while reading: %s", err, path)
		}
		return nil
	}
	defer r.Close()

	e.logger.Debug("scanning container", "path", path)
	return e.scanEntries(ctx, path, r)
}

// scanEntries scans the entries of an open container. A failure to read
// the container abandons the rest of it; the caller carries on.
func (e *Engine) scanEntries(ctx context.Context, containerPath string, r archive.Reader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			e.fail("IO Error: %v, while reading: %s", err, containerPath)
			return nil
		}

		ext := entry.Ext()
		switch {
		case archive.IsClass(ext):
			e.scanClassEntry(containerPath, entry)
		case e.exts.Contains(ext):
			if err := e.scanNestedContainer(ctx, containerPath, entry); err != nil {
				return err
			}
		}
	}
}

// scanClassEntry reads the version of a class file inside a container.
func (e *Engine) scanClassEntry(containerPath string, entry *archive.Entry) {
	location := joinContainer(containerPath, entry.Name)

	rc, err := entry.Open()
	if err != nil {
		e.fail("IO Error: %v, while reading: %s", err, location)
		return
	}
	defer e.closeStream(rc, location)

	e.readClass(rc, entry.Name, containerPath, location)
}

// scanNestedContainer scans an archive stored as an entry of another
// container, reading it as a stream.
func (e *Engine) scanNestedContainer(ctx context.Context, containerPath string, entry *archive.Entry) error {
	nestedPath := joinContainer(containerPath, entry.Name)

	rc, err := entry.Open()
	if err != nil {
		e.fail("IO Error: %v, while reading: %s", err, nestedPath)
		return nil
	}
	defer e.closeStream(rc, nestedPath)

	nested := archive.OpenStream(rc)
	defer nested.Close()

	e.logger.Debug("scanning nested container", "path", nestedPath)
	return e.scanEntries(ctx, nestedPath, nested)
}

// readClass reads a class header from r and publishes the outcome.
func (e *Engine) readClass(r io.Reader, className, containerPath, location string) {
	version, err := classfile.ReadVersion(r)
	if err != nil {
		e.fail("IO Error: %v, while reading: %s", err, location)
		return
	}

	e.queue.Push(model.Success{
		ClassName:     className,
		ContainerPath: containerPath,
		Version:       version,
	})
	e.classesScanned.Add(1)
}

// closeStream closes c, publishing a failure if that fails.
func (e *Engine) closeStream(c io.Closer, location string) {
	if err := c.Close(); err != nil {
		e.fail("Unable to close: %s", location)
	}
}

// fail publishes a Failure result.
func (e *Engine) fail(format string, args ...any) {
	e.queue.Push(model.NewFailure(format, args...))
}

// joinContainer appends an entry name to a container path. filepath.Join
// is not used because container paths are not real directories.
func joinContainer(containerPath, name string) string {
	return containerPath + string(filepath.Separator) + name
}

// absPath returns the absolute form of path, or the cleaned path when the
// working directory cannot be determined.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
