package ingest

import (
	"context"
	"errors"

	"github.com/lysyi3m/rss-aggregator/app/database"
	"github.com/lysyi3m/rss-aggregator/app/feed"
)

const (
	KindTransport     = "TransportError"
	KindParse         = "ParseError"
	KindFilterCompile = "FilterCompileError"
	KindConflict      = "StorageConflict"
	KindStorage       = "StorageError"
	KindCancelled     = "Cancelled"
	KindUnknown       = "UnknownError"
)

// ErrorKind names the pipeline error class of err.
func ErrorKind(err error) string {
	var (
		transportErr *feed.TransportError
		parseErr     *feed.ParseError
		compileErr   *feed.FilterCompileError
		storageErr   *database.StorageError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &compileErr):
		return KindFilterCompile
	case errors.Is(err, database.ErrConflict):
		return KindConflict
	case errors.As(err, &storageErr):
		return KindStorage
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindUnknown
	}
}
