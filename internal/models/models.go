// Package models defines the plain data records shared by the storage and API
// layers. Behaviour (hashing, token minting, validation) lives in services
// operating on these structs, never on the structs themselves.
package models

import "time"

// User is the persisted identity record. PasswordHash and RefreshToken are
// serialised only by the datastore; outward-facing responses must use a
// public projection instead.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	PasswordHash  string    `json:"passwordHash,omitempty"`
	RefreshToken  string    `json:"refreshToken,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Redacted returns a copy of the user with credential material removed. The
// request gate attaches this projection to the request context.
func (u User) Redacted() User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	return u
}

// Video is a catalogue entry for an uploaded video. The media itself lives in
// external object storage; only playback references are kept here.
type Video struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	VideoURL        string    `json:"videoUrl"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	DurationSeconds int       `json:"durationSeconds"`
	Published       bool      `json:"published"`
	Views           int64     `json:"views"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
