package port

import (
	"context"

	"github.com/fhuonder/belegscan/internal/domain/entity"
)

// DocumentRepository is the required local persistence tier for document
// records. It is the durability guarantee across restarts: every mutation
// must succeed or surface an error to the caller.
type DocumentRepository interface {
	Save(ctx context.Context, rec *entity.DocumentRecord) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	List(ctx context.Context) ([]*entity.DocumentRecord, error)
}

// MirrorStore is an optional remote mirror of the document collection.
// Writes are best-effort: failures are logged and swallowed by the caller
// and must never roll back or block a local mutation.
type MirrorStore interface {
	Save(ctx context.Context, rec *entity.DocumentRecord) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}
