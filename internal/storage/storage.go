package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

// ErrNoExports is returned when no export matches the requested prefix.
var ErrNoExports = errors.New("no exports found")

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations the export job needs.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}

// ExportKey lays out exports as <prefix>/<YYYYMMDD>/<fileName>.
func ExportKey(prefix string, day time.Time, fileName string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	return path.Join(prefix, day.Format("20060102"), fileName)
}

// DayPrefix is the listing prefix for one export day, or for every day when
// day is zero.
func DayPrefix(prefix string, day time.Time) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if day.IsZero() {
		if prefix == "" {
			return ""
		}
		return prefix + "/"
	}
	return ExportKey(prefix, day, "") + "/"
}

// ListExports returns the objects named fileName under prefix (optionally a
// single day), newest day first.
func ListExports(ctx context.Context, store ObjectStorage, prefix string, day time.Time, fileName string) ([]ObjectInfo, error) {
	objects, err := store.ListObjects(ctx, DayPrefix(prefix, day))
	if err != nil {
		return nil, err
	}

	exports := make([]ObjectInfo, 0, len(objects))
	for _, obj := range objects {
		if fileName == "" || path.Base(obj.Key) == fileName {
			exports = append(exports, obj)
		}
	}
	// YYYYMMDD directories sort lexically by date.
	sort.SliceStable(exports, func(i, j int) bool {
		return exports[i].Key > exports[j].Key
	})
	return exports, nil
}

// FetchLatestExport downloads the newest export named fileName to destPath
// and returns its key.
func FetchLatestExport(ctx context.Context, store ObjectStorage, prefix, fileName, destPath string) (string, error) {
	exports, err := ListExports(ctx, store, prefix, time.Time{}, fileName)
	if err != nil {
		return "", err
	}
	if len(exports) == 0 {
		return "", fmt.Errorf("%w under %q", ErrNoExports, prefix)
	}

	key := exports[0].Key
	if err := store.DownloadObject(ctx, key, destPath); err != nil {
		return "", err
	}
	return key, nil
}
