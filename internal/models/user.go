package models

import "time"

type User struct {
	ID          int64     `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Bio         string    `db:"bio" json:"bio"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Credits     int64     `db:"credits" json:"credits"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PublicUser is the profile shape shown to other users.
type PublicUser struct {
	ID          int64   `db:"id" json:"id"`
	Username    string  `db:"username" json:"username"`
	DisplayName string  `db:"display_name" json:"display_name"`
	Bio         string  `db:"bio" json:"bio"`
	AvatarURL   *string `db:"avatar_url" json:"avatar_url,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
	}
}
