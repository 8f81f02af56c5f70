package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/AlphaSurf-Browser/WolfPack/internal/howl"
)

// ErrNotFound marks a lookup for a user that does not exist.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateUsername marks a create that hit the username unique index.
var ErrDuplicateUsername = errors.New("username already taken")

// Store is the user directory backing registration, login and author
// snapshot resolution.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, u *User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (s *Store) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking username: %w", err)
	}
	return count > 0, nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return &u, nil
}

// Snapshots resolves author ids to display snapshots in one query. Unknown
// ids are simply absent from the result; the feed renders those howls with
// an unresolved author rather than failing the listing.
func (s *Store) Snapshots(ctx context.Context, ids []string) (map[string]howl.Author, error) {
	snapshots := make(map[string]howl.Author, len(ids))
	if len(ids) == 0 {
		return snapshots, nil
	}

	var users []User
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("resolving authors: %w", err)
	}

	for _, u := range users {
		snapshots[u.ID] = howl.Author{
			ID:        u.ID,
			Username:  u.Username,
			AvatarURL: u.AvatarURL,
		}
	}
	return snapshots, nil
}
