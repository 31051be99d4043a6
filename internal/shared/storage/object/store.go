package object

import (
	"context"
	"io"
)

// Folders used by the application. Keys returned by Save start with one of them.
const (
	FolderRequestPDFs = "pdfs"
	FolderSupportDocs = "support_docs"
	FolderImages      = "images"
	FolderNoteImages  = "note_images"
)

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	Save(ctx context.Context, folder string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
