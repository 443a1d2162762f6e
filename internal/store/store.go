package store

import (
	"context"

	"github.com/billed-app/billdesk/internal/bill"
)

// CreateResult is what the Bill Store returns for a new attachment upload:
// the key of the shell bill record it materialized and the access URL of the
// stored file.
type CreateResult struct {
	Key     string `json:"key"`
	FileURL string `json:"fileUrl"`
}

// Store is the remote Bill Store contract. It is consumed here, never
// implemented: the backend is an opaque remote service.
type Store interface {
	// List returns every bill record in the store.
	List(ctx context.Context) ([]bill.Bill, error)

	// CreateFile uploads a receipt file as a multipart payload carrying the
	// file and the submitter's email. The store creates a shell bill record
	// and returns its key along with the file's access URL.
	CreateFile(ctx context.Context, email, filename string, data []byte, contentType string) (CreateResult, error)

	// Update replaces the record identified by id with the given bill.
	Update(ctx context.Context, id string, b bill.Bill) (bill.Bill, error)

	// Delete removes the record (and its attachment) identified by id.
	Delete(ctx context.Context, id string) error
}
