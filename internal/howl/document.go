package howl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// docRecord is the persisted shape of one post in the document variant:
// one independently addressable record per howl with an embedded like-set.
type docRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	AuthorID  string             `bson:"author"`
	Content   string             `bson:"content"`
	Timestamp time.Time          `bson:"timestamp"`
	Paws      int64              `bson:"paws"`
	Rehowls   int64              `bson:"rehowls"`
	Replies   int64              `bson:"replies"`
	Likes     []string           `bson:"likes"`
	Media     *Media             `bson:"media,omitempty"`
}

// howlCollection is the slice of *mongo.Collection the repository uses,
// factored out so tests can stand in an in-memory fake.
type howlCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// DocumentRepository stores each post as its own record and mutates likes
// with the store's atomic update primitives. Concurrent toggles by
// different actors on the same post both land; a single actor racing
// itself resolves last-write-wins on its own membership.
type DocumentRepository struct {
	howls howlCollection
	users UserDirectory
}

func NewDocumentRepository(db *mongo.Database, users UserDirectory) *DocumentRepository {
	return &DocumentRepository{howls: db.Collection("howls"), users: users}
}

// Create inserts a new record with an empty like-set. The store assigns
// the globally unique id.
func (r *DocumentRepository) Create(ctx context.Context, draft Draft, authorID string) (Howl, error) {
	if authorID == "" {
		return Howl{}, ErrUnauthorized
	}

	rec := docRecord{
		ID:        primitive.NewObjectID(),
		AuthorID:  authorID,
		Content:   draft.Content,
		Timestamp: time.Now().UTC(),
		Likes:     []string{},
		Media:     draft.Media,
	}
	if _, err := r.howls.InsertOne(ctx, rec); err != nil {
		return Howl{}, fmt.Errorf("%w: insert: %v", ErrUnavailable, err)
	}

	snapshots, err := r.users.Snapshots(ctx, []string{authorID})
	if err != nil {
		// The howl is persisted; degrade to an unresolved author rather
		// than failing the create.
		snapshots = nil
	}
	return rec.toHowl(snapshots), nil
}

// List returns every record sorted newest first, each author resolved to a
// {username, avatar_url} snapshot in one batched directory lookup.
func (r *DocumentRepository) List(ctx context.Context) ([]Howl, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.howls.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find: %v", ErrUnavailable, err)
	}
	defer cursor.Close(ctx)

	var records []docRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}

	seen := map[string]bool{}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if !seen[rec.AuthorID] {
			seen[rec.AuthorID] = true
			ids = append(ids, rec.AuthorID)
		}
	}
	snapshots, err := r.users.Snapshots(ctx, ids)
	if err != nil {
		return nil, err
	}

	howls := make([]Howl, 0, len(records))
	for _, rec := range records {
		howls = append(howls, rec.toHowl(snapshots))
	}
	return howls, nil
}

// ToggleLike flips the actor's membership in the record's like-set. Both
// directions are single atomic updates guarded on current membership, so
// there is no read-modify-write window across actors.
func (r *DocumentRepository) ToggleLike(ctx context.Context, id, actorID string) (Howl, error) {
	if actorID == "" {
		return Howl{}, ErrUnauthorized
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Howl{}, ErrNotFound
	}

	// Unlike if the actor is currently a member.
	res, err := r.howls.UpdateOne(ctx,
		bson.M{"_id": oid, "likes": actorID},
		bson.M{"$pull": bson.M{"likes": actorID}},
	)
	if err != nil {
		return Howl{}, fmt.Errorf("%w: unlike: %v", ErrUnavailable, err)
	}

	if res.MatchedCount == 0 {
		// Like if the actor is not a member. $addToSet keeps the set free
		// of duplicates even if this races a concurrent like by the same
		// actor.
		res, err = r.howls.UpdateOne(ctx,
			bson.M{"_id": oid, "likes": bson.M{"$ne": actorID}},
			bson.M{"$addToSet": bson.M{"likes": actorID}},
		)
		if err != nil {
			return Howl{}, fmt.Errorf("%w: like: %v", ErrUnavailable, err)
		}
	}

	var rec docRecord
	if err := r.howls.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Neither guard matched and the record is absent.
			return Howl{}, ErrNotFound
		}
		return Howl{}, fmt.Errorf("%w: reload: %v", ErrUnavailable, err)
	}

	snapshots, err := r.users.Snapshots(ctx, []string{rec.AuthorID})
	if err != nil {
		snapshots = nil
	}
	return rec.toHowl(snapshots), nil
}

func (rec docRecord) toHowl(snapshots map[string]Author) Howl {
	h := Howl{
		ID:        rec.ID.Hex(),
		AuthorID:  rec.AuthorID,
		Content:   rec.Content,
		Media:     rec.Media,
		CreatedAt: rec.Timestamp,
		Likes:     append([]string(nil), rec.Likes...),
		LikeCount: int64(len(rec.Likes)),
		Paws:      rec.Paws,
		Rehowls:   rec.Rehowls,
		Replies:   rec.Replies,
	}
	if s, ok := snapshots[rec.AuthorID]; ok {
		h.Author = &s
	}
	return h
}
