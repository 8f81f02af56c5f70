package user

import "time"

type User struct {
	ID           string `gorm:"primaryKey"`
	CreatedAt    time.Time
	Username     string `gorm:"uniqueIndex"`
	PasswordHash string
	AvatarURL    string
}
