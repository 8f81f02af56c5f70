package howl

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeHowlCollection implements howlCollection in memory, honoring the two
// guarded updates the repository issues: {likes: actor} + $pull and
// {likes: {$ne: actor}} + $addToSet.
type fakeHowlCollection struct {
	docs []docRecord
}

func (f *fakeHowlCollection) lookup(oid primitive.ObjectID) *docRecord {
	for i := range f.docs {
		if f.docs[i].ID == oid {
			return &f.docs[i]
		}
	}
	return nil
}

func (f *fakeHowlCollection) InsertOne(_ context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	rec := document.(docRecord)
	f.docs = append(f.docs, rec)
	return &mongo.InsertOneResult{InsertedID: rec.ID}, nil
}

func (f *fakeHowlCollection) UpdateOne(_ context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	doc := f.lookup(filter.(bson.M)["_id"].(primitive.ObjectID))
	if doc == nil {
		return &mongo.UpdateResult{}, nil
	}

	member := func(actor string) bool {
		for _, id := range doc.Likes {
			if id == actor {
				return true
			}
		}
		return false
	}

	up := update.(bson.M)
	if pull, ok := up["$pull"].(bson.M); ok {
		actor := pull["likes"].(string)
		if !member(actor) {
			return &mongo.UpdateResult{}, nil
		}
		kept := doc.Likes[:0]
		for _, id := range doc.Likes {
			if id != actor {
				kept = append(kept, id)
			}
		}
		doc.Likes = kept
		return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}
	if add, ok := up["$addToSet"].(bson.M); ok {
		actor := add["likes"].(string)
		if member(actor) {
			return &mongo.UpdateResult{}, nil
		}
		doc.Likes = append(doc.Likes, actor)
		return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}
	return &mongo.UpdateResult{}, nil
}

func (f *fakeHowlCollection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	doc := f.lookup(filter.(bson.M)["_id"].(primitive.ObjectID))
	if doc == nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(*doc, nil, nil)
}

func (f *fakeHowlCollection) Find(_ context.Context, _ interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	sorted := append([]docRecord(nil), f.docs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.After(sorted[j].Timestamp)
		}
		return sorted[i].ID.Hex() > sorted[j].ID.Hex()
	})
	docs := make([]interface{}, 0, len(sorted))
	for _, rec := range sorted {
		docs = append(docs, rec)
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

type stubDirectory struct {
	snapshots map[string]Author
}

func (s stubDirectory) Snapshots(_ context.Context, _ []string) (map[string]Author, error) {
	return s.snapshots, nil
}

func newFakeDocRepo(snapshots map[string]Author) (*DocumentRepository, *fakeHowlCollection) {
	fake := &fakeHowlCollection{}
	return &DocumentRepository{howls: fake, users: stubDirectory{snapshots: snapshots}}, fake
}

// Toggling twice by the same actor returns the record to its original
// like membership.
func TestDocumentToggleRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFakeDocRepo(nil)

	created, err := repo.Create(ctx, Draft{Content: "pack meeting at dawn"}, "u1")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), created.LikeCount)

	liked, err := repo.ToggleLike(ctx, created.ID, "u2")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), liked.LikeCount)
	assert.Equal(t, []string{"u2"}, liked.Likes)

	unliked, err := repo.ToggleLike(ctx, created.ID, "u2")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), unliked.LikeCount)
	assert.Empty(t, unliked.Likes)
}

// Likes by different actors are independent memberships: both land, and
// one actor unliking leaves the other's like in place.
func TestDocumentToggleTwoActors(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFakeDocRepo(nil)

	created, err := repo.Create(ctx, Draft{Content: "moonrise"}, "u1")
	assert.NoError(t, err)

	_, err = repo.ToggleLike(ctx, created.ID, "u2")
	assert.NoError(t, err)
	both, err := repo.ToggleLike(ctx, created.ID, "u3")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), both.LikeCount)
	assert.Contains(t, both.Likes, "u2")
	assert.Contains(t, both.Likes, "u3")

	one, err := repo.ToggleLike(ctx, created.ID, "u2")
	assert.NoError(t, err)
	assert.Equal(t, []string{"u3"}, one.Likes)
}

func TestDocumentToggleNotFound(t *testing.T) {
	ctx := context.Background()
	repo, fake := newFakeDocRepo(nil)

	created, err := repo.Create(ctx, Draft{Content: "untouched"}, "u1")
	assert.NoError(t, err)
	_, err = repo.ToggleLike(ctx, created.ID, "u2")
	assert.NoError(t, err)

	_, err = repo.ToggleLike(ctx, primitive.NewObjectID().Hex(), "u2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.ToggleLike(ctx, "not-an-object-id", "u2")
	assert.ErrorIs(t, err, ErrNotFound)

	// The collection is unaltered by the failed toggles.
	assert.Len(t, fake.docs, 1)
	assert.Equal(t, []string{"u2"}, fake.docs[0].Likes)
}

func TestDocumentToggleRequiresActor(t *testing.T) {
	repo, _ := newFakeDocRepo(nil)

	_, err := repo.ToggleLike(context.Background(), primitive.NewObjectID().Hex(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDocumentListResolvesAuthors(t *testing.T) {
	ctx := context.Background()
	repo, fake := newFakeDocRepo(map[string]Author{
		"u1": {ID: "u1", Username: "alpha", AvatarURL: "https://api.dicebear.com/6.x/avataaars/svg?seed=alpha"},
	})

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fake.docs = []docRecord{
		{ID: primitive.NewObjectID(), AuthorID: "u1", Content: "older", Timestamp: base},
		{ID: primitive.NewObjectID(), AuthorID: "ghost", Content: "newer", Timestamp: base.Add(time.Hour)},
	}

	howls, err := repo.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, howls, 2)
	assert.Equal(t, "newer", howls[0].Content)
	assert.Nil(t, howls[0].Author)
	assert.Equal(t, "older", howls[1].Content)
	assert.Equal(t, "alpha", howls[1].Author.Username)
}

func TestDocRecordToHowl(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	rec := docRecord{
		ID:        oid,
		AuthorID:  "u1",
		Content:   "first howl of the day",
		Timestamp: created,
		Likes:     []string{"u2", "u3"},
		Media:     &Media{URL: "https://cdn/clip.mp4", Kind: MediaVideo},
	}

	snapshots := map[string]Author{
		"u1": {ID: "u1", Username: "alpha", AvatarURL: "https://api.dicebear.com/6.x/avataaars/svg?seed=alpha"},
	}

	h := rec.toHowl(snapshots)
	assert.Equal(t, oid.Hex(), h.ID)
	assert.Equal(t, "u1", h.AuthorID)
	assert.Equal(t, "alpha", h.Author.Username)
	assert.Equal(t, int64(2), h.LikeCount)
	assert.Equal(t, []string{"u2", "u3"}, h.Likes)
	assert.Equal(t, MediaVideo, h.Media.Kind)
	assert.True(t, h.CreatedAt.Equal(created))
}

func TestDocRecordToHowlUnresolvedAuthor(t *testing.T) {
	rec := docRecord{ID: primitive.NewObjectID(), AuthorID: "ghost", Content: "orphan"}

	h := rec.toHowl(nil)
	assert.Nil(t, h.Author)
	assert.Equal(t, "ghost", h.AuthorID)
	assert.Equal(t, int64(0), h.LikeCount)
}

// The like-set is copied on conversion so later mutations of the record do
// not alias the returned howl.
func TestDocRecordToHowlCopiesLikes(t *testing.T) {
	rec := docRecord{ID: primitive.NewObjectID(), Likes: []string{"u1"}}

	h := rec.toHowl(nil)
	rec.Likes[0] = "mutated"
	assert.Equal(t, []string{"u1"}, h.Likes)
}
