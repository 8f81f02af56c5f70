package howl

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// MediaKind is derived from the uploaded MIME type at creation time and is
// immutable afterwards.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Media is the optional attachment of a howl. Absent media is a nil
// *Media, never an empty struct.
type Media struct {
	URL  string    `json:"url" bson:"url"`
	Kind MediaKind `json:"type" bson:"type"`
}

// Author is the denormalized snapshot of a howl's creator, resolved from
// the user directory when listing in the document variant.
type Author struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// Howl is a feed post. Content, media, author and creation time are
// immutable once persisted; only the like state mutates.
//
// The two repository variants disagree on what a like is: the flat variant
// keeps an anonymous monotonic counter (Likes stays nil), the document
// variant keeps the set of actor ids (LikeCount == len(Likes)).
type Howl struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id,omitempty"`
	Author    *Author   `json:"author,omitempty"`
	Content   string    `json:"content"`
	Media     *Media    `json:"media"`
	CreatedAt time.Time `json:"timestamp"`
	Likes     []string  `json:"likes,omitempty"`
	LikeCount int64     `json:"like_count"`
	Paws      int64     `json:"paws,omitempty"`
	Rehowls   int64     `json:"rehowls,omitempty"`
	Replies   int64     `json:"replies,omitempty"`
}

// Draft is a validated create request: trimmed content plus the already
// uploaded media, if any.
type Draft struct {
	Content string
	Media   *Media
}

// MediaKindFromContentType maps an upload's MIME type to a media kind.
// Anything that is not an image or a video is rejected.
func MediaKindFromContentType(contentType string) (MediaKind, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaImage, true
	case strings.HasPrefix(contentType, "video/"):
		return MediaVideo, true
	default:
		return "", false
	}
}

// sortFeed orders howls by creation time descending, ties broken by id
// descending. The order is total and must not depend on storage iteration
// order, so the service applies it to every listing.
func sortFeed(howls []Howl) {
	sort.SliceStable(howls, func(i, j int) bool {
		if !howls[i].CreatedAt.Equal(howls[j].CreatedAt) {
			return howls[i].CreatedAt.After(howls[j].CreatedAt)
		}
		return compareIDs(howls[i].ID, howls[j].ID) > 0
	})
}

// compareIDs compares numerically when both ids are integers (the flat
// variant's sequence ids), lexicographically otherwise (ObjectID hex).
func compareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
