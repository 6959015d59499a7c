package filestore

import (
	"io"
	"path"
	"strings"
	"time"

	"github.com/koustreak/talenttrack/internal/errs"
)

// ObjectInfo describes a single stored document file.
type ObjectInfo struct {
	// Key is the object path within the bucket (e.g. "contracts/2024/jdoe.pdf").
	Key string

	// Size is the byte size of the object. -1 if unknown.
	Size int64

	ContentType  string
	ETag         string
	LastModified time.Time
}

// Object is a streaming handle to a document's content.
// The caller MUST call Close() after reading.
type Object interface {
	io.ReadCloser

	// Info returns the metadata for this object.
	Info() *ObjectInfo
}

// ObjectKey turns a stored file path into a bucket key. Leading slashes
// and "./" segments are dropped; paths escaping the root are rejected.
func ObjectKey(filePath string) (string, error) {
	p := strings.ReplaceAll(filePath, "\\", "/")
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", errs.New(errs.ErrKindInvalidInput, "document path must not contain '..'")
		}
	}
	key := strings.TrimPrefix(path.Clean("/"+p), "/")
	if key == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "document path is empty")
	}
	return key, nil
}
