package howl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AlphaSurf-Browser/WolfPack/internal/storage"
)

// FeedKey is the well-known object key holding the whole collection.
const FeedKey = "howls.txt"

// flatRecord is the persisted shape of one post in the flat variant:
// {id, content, media, timestamp, likes}, with likes a bare counter.
type flatRecord struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Media     *Media    `json:"media"`
	Timestamp time.Time `json:"timestamp"`
	Likes     int64     `json:"likes"`
}

// FlatRepository stores the entire post collection as one JSON array under
// a single object key. Every mutation is a whole-collection
// read-modify-write.
//
// In the default mode there is no compare-and-swap: two mutations racing on
// the key lose the earlier write. That is the documented behavior of this
// variant, not a bug. With conditional enabled, writes carry the version
// stamp read before the mutation and a lost race surfaces ErrConflict
// instead.
type FlatRepository struct {
	store       ObjectStore
	key         string
	conditional bool
}

func NewFlatRepository(store ObjectStore, key string, conditional bool) *FlatRepository {
	if key == "" {
		key = FeedKey
	}
	return &FlatRepository{store: store, key: key, conditional: conditional}
}

// Conditional reports whether conditional writes are active, so the caller
// can log which consistency mode the deployment runs with.
func (r *FlatRepository) Conditional() bool {
	return r.conditional
}

func (r *FlatRepository) load(ctx context.Context) ([]flatRecord, string, error) {
	body, etag, err := r.store.Get(ctx, r.key)
	if errors.Is(err, storage.ErrNotFound) {
		// First-use bootstrap: a missing key is an empty feed.
		return []flatRecord{}, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	var records []flatRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, "", fmt.Errorf("decoding feed blob %s: %w", r.key, err)
	}
	return records, etag, nil
}

func (r *FlatRepository) save(ctx context.Context, records []flatRecord, etag string) error {
	body, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding feed blob %s: %w", r.key, err)
	}

	if r.conditional {
		// An empty stamp (first-use bootstrap) becomes a create-only
		// write, so even two creates racing on a missing key conflict
		// instead of losing one.
		err = r.store.PutIf(ctx, r.key, body, "application/json", etag)
		if errors.Is(err, storage.ErrPreconditionFailed) {
			return ErrConflict
		}
		return err
	}
	return r.store.Put(ctx, r.key, body, "application/json")
}

// Create appends a post to the collection. Ids follow the length+1
// sequence, which is best-effort only: two racing creates can mint the
// same id (acceptable at this variant's target scale, and there is no
// delete path to ever shrink the sequence).
func (r *FlatRepository) Create(ctx context.Context, draft Draft, _ string) (Howl, error) {
	records, etag, err := r.load(ctx)
	if err != nil {
		return Howl{}, err
	}

	rec := flatRecord{
		ID:        int64(len(records)) + 1,
		Content:   draft.Content,
		Media:     draft.Media,
		Timestamp: time.Now().UTC(),
	}
	records = append(records, rec)

	if err := r.save(ctx, records, etag); err != nil {
		return Howl{}, err
	}
	return rec.toHowl(), nil
}

func (r *FlatRepository) List(ctx context.Context) ([]Howl, error) {
	records, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	howls := make([]Howl, 0, len(records))
	for _, rec := range records {
		howls = append(howls, rec.toHowl())
	}
	return howls, nil
}

// ToggleLike in the flat variant is not a toggle at all: likes are an
// anonymous monotonic counter and the actor id is ignored.
func (r *FlatRepository) ToggleLike(ctx context.Context, id, _ string) (Howl, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Howl{}, ErrNotFound
	}

	records, etag, err := r.load(ctx)
	if err != nil {
		return Howl{}, err
	}

	idx := -1
	for i := range records {
		if records[i].ID == n {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Howl{}, ErrNotFound
	}

	records[idx].Likes++

	if err := r.save(ctx, records, etag); err != nil {
		return Howl{}, err
	}
	return records[idx].toHowl(), nil
}

func (rec flatRecord) toHowl() Howl {
	return Howl{
		ID:        strconv.FormatInt(rec.ID, 10),
		Content:   rec.Content,
		Media:     rec.Media,
		CreatedAt: rec.Timestamp,
		LikeCount: rec.Likes,
	}
}
