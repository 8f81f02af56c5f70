package howl

import (
	"context"
	"strings"
)

// Service is the storage-agnostic feed domain: input validation, actor
// requirements and deterministic ordering, orchestrating whichever
// repository the deployment selected.
type Service struct {
	repo         Repository
	requireActor bool
}

// NewService builds the feed service around an injected repository.
// requireActor matches the document deployment, where every mutation needs
// an authenticated actor; the flat deployment accepts anonymous calls.
func NewService(repo Repository, requireActor bool) *Service {
	return &Service{repo: repo, requireActor: requireActor}
}

// Create validates the draft and persists it. Content must be non-empty
// after trimming.
func (s *Service) Create(ctx context.Context, draft Draft, actorID string) (Howl, error) {
	draft.Content = strings.TrimSpace(draft.Content)
	if draft.Content == "" {
		return Howl{}, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if s.requireActor && actorID == "" {
		return Howl{}, ErrUnauthorized
	}
	return s.repo.Create(ctx, draft, actorID)
}

// List returns the feed in its total order: creation time descending, id
// descending on ties. An empty collection is an empty slice, not an error.
func (s *Service) List(ctx context.Context) ([]Howl, error) {
	howls, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if howls == nil {
		howls = []Howl{}
	}
	sortFeed(howls)
	return howls, nil
}

// ToggleLike applies the variant's like mutation and returns the
// post-mutation state.
func (s *Service) ToggleLike(ctx context.Context, id, actorID string) (Howl, error) {
	if s.requireActor && actorID == "" {
		return Howl{}, ErrUnauthorized
	}
	return s.repo.ToggleLike(ctx, id, actorID)
}
