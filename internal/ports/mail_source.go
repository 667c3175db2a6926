package ports

import (
	"context"

	"github.com/mikey/rfq-workflow/internal/core"
)

// MailSource defines the interface for opening mail folders
type MailSource interface {
	// OpenFolder opens a folder of an account. It fails with core.ErrSourceUnavailable
	// when the underlying store cannot be reached.
	OpenFolder(ctx context.Context, account, folderPath string) (Folder, error)
}

// Folder yields the items of one folder in delivery order
type Folder interface {
	// Name returns the folder path
	Name() string

	// Next returns the next item, io.EOF when the folder is exhausted, or a
	// *core.ItemReadError when a single item could not be read
	Next(ctx context.Context) (core.RawItem, error)

	// Close releases the folder
	Close() error
}
