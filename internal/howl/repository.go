package howl

import "context"

// Repository is the single contract both persistence strategies conform
// to. The flat variant ignores actor identities (anonymous counter); the
// document variant requires them (per-actor toggle).
type Repository interface {
	Create(ctx context.Context, draft Draft, authorID string) (Howl, error)
	List(ctx context.Context) ([]Howl, error)
	ToggleLike(ctx context.Context, id, actorID string) (Howl, error)
}

// ObjectStore is the blob backend the flat-collection repository runs on.
// Satisfied by *storage.Client.
type ObjectStore interface {
	Get(ctx context.Context, key string) (body []byte, etag string, err error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PutIf(ctx context.Context, key string, body []byte, contentType, etag string) error
}

// UserDirectory resolves author ids to display snapshots for the document
// variant's listings. Satisfied by *user.Store.
type UserDirectory interface {
	Snapshots(ctx context.Context, ids []string) (map[string]Author, error)
}
