package storage

import (
	"context"
	"io"
)

type Uploader interface {
	// Upload writes the object and returns its gs:// path.
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}
