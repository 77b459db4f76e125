// Package reader loads file contents for prompt assembly
package reader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/bethropolis/promptpack/internal/utils"
)

// MaxFileSize is the default limit above which files are not read (10 MiB).
const MaxFileSize int64 = 10 * 1024 * 1024

// sniffLen is how much of a file is searched for NUL bytes.
const sniffLen = 8 * 1024

// Kind classifies a read failure
type Kind string

const (
	KindNone             Kind = ""
	KindNotFound         Kind = "NotFound"
	KindPermissionDenied Kind = "PermissionDenied"
	KindNotAFile         Kind = "NotAFile"
	KindFileTooLarge     Kind = "FileTooLarge"
	KindReadError        Kind = "ReadError"
	KindBinaryFile       Kind = "BinaryFile"
)

// Result is either content (HasContent) or a structured failure (Error)
type Result struct {
	Path       string
	Content    string
	HasContent bool
	Error      Kind
	Message    string
	Size       int64
}

// Failed reports whether the read produced a structured error
func (r Result) Failed() bool {
	return r.Error != KindNone
}

// Reader reads text files with a size limit. The zero value is not usable;
// call New.
type Reader struct {
	maxFileSize int64
	allowBinary bool
	logger      utils.Logger
}

// Option configures a Reader
type Option func(*Reader)

// WithMaxFileSize changes the size limit; values <= 0 keep the default
func WithMaxFileSize(limit int64) Option {
	return func(r *Reader) {
		if limit > 0 {
			r.maxFileSize = limit
		}
	}
}

// WithAllowBinary returns binary files as text instead of failing them with
// KindBinaryFile
func WithAllowBinary(allow bool) Option {
	return func(r *Reader) {
		r.allowBinary = allow
	}
}

func WithLogger(logger utils.Logger) Option {
	return func(r *Reader) {
		r.logger = utils.OrNoop(logger)
	}
}

// New creates a Reader with a 10 MiB limit that rejects binary content
func New(opts ...Option) *Reader {
	r := &Reader{
		maxFileSize: MaxFileSize,
		logger:      utils.NoopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadFileContent reads path. File-level problems come back as a Result with
// Error set; the error return is only used when ctx is done.
func (r *Reader) ReadFileContent(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return r.fail(res, classify(err), err.Error()), nil
	}
	res.Size = info.Size()

	if info.Size() > r.maxFileSize {
		r.logger.Warn("File too large: %s (%d bytes)", path, info.Size())
		return r.fail(res, KindFileTooLarge, fmt.Sprintf("Size: %d bytes", info.Size())), nil
	}
	if !info.Mode().IsRegular() {
		return r.fail(res, KindNotAFile, "not a regular file"), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return r.fail(res, classify(err), err.Error()), nil
	}

	if !r.allowBinary && isBinary(data) {
		return r.fail(res, KindBinaryFile, "binary content is not included"), nil
	}

	r.logger.Debug("Read %s (%d bytes)", path, len(data))
	res.Content = string(data)
	res.HasContent = true
	return res, nil
}

func (r *Reader) fail(res Result, kind Kind, message string) Result {
	r.logger.Debug("Could not read %s: %s: %s", res.Path, kind, message)
	res.Error = kind
	res.Message = message
	return res
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	default:
		return KindReadError
	}
}

// isBinary reports a NUL byte near the start or content that is not UTF-8
func isBinary(data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return bytes.IndexByte(head, 0) >= 0 || !utf8.Valid(data)
}
