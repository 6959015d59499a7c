package minio

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"

	miniogo "github.com/minio/minio-go/v7"

	"github.com/koustreak/talenttrack/internal/errs"
)

// s3Codes classifies S3 error codes that are not reflected in the status.
var s3Codes = map[string]errs.ErrKind{
	"NoSuchBucket":          errs.ErrKindNotFound,
	"NoSuchKey":             errs.ErrKindNotFound,
	"AccessDenied":          errs.ErrKindPermissionDenied,
	"InvalidAccessKeyId":    errs.ErrKindAccessDenied,
	"SignatureDoesNotMatch": errs.ErrKindAccessDenied,
	"InvalidBucketName":     errs.ErrKindInvalidInput,
	"InvalidObjectName":     errs.ErrKindInvalidInput,
	"KeyTooLongError":       errs.ErrKindInvalidInput,
	"RequestTimeout":        errs.ErrKindTimeout,
	"SlowDown":              errs.ErrKindConnectionRefused,
}

// kindOf picks the kind for a storage failure. Credential problems are
// reported with the connection family so the API answers 503, not 403.
func kindOf(err error) errs.ErrKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.ErrKindTimeout
	}

	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		if k, ok := s3Codes[resp.Code]; ok {
			return k
		}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return errs.ErrKindNotFound
		case http.StatusForbidden:
			return errs.ErrKindPermissionDenied
		case http.StatusUnauthorized:
			return errs.ErrKindAccessDenied
		case http.StatusBadRequest:
			return errs.ErrKindInvalidInput
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return errs.ErrKindHostNotFound
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return errs.ErrKindConnectionRefused
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errs.ErrKindTimeout
	}
	return errs.ErrKindConnection
}

// mapError wraps a MinIO SDK error in an *errs.Error. It returns nil for nil.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errs.Wrap(kindOf(err), msg, err)
}
