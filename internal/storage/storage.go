package storage

import (
	"context"
	"io"
)

// PhotoStorage is the object-storage collaborator: it accepts an uploaded
// image and returns a publicly resolvable URL. Upload errors propagate to the
// caller, which reports them additively: a saved entry is never rolled back
// because its photo failed to upload.
type PhotoStorage interface {
	Upload(ctx context.Context, up Upload) (string, error)
}

// Upload describes one image upload scoped to its owner and entry.
type Upload struct {
	OwnerID     string
	EntryID     string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
