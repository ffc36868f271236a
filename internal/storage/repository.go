// Package storage provides the datastore capability consumed by the API and
// auth service. Two implementations exist: a JSON-file store for development
// and single-node deployments, and a Postgres store for shared deployments.
package storage

import (
	"context"
	"errors"

	"github.com/Vishal-jatia/youtube-backend/internal/models"
)

// ErrStaleRefreshToken is returned by RotateRefreshToken when the presented
// token no longer matches the value stored on the user record. This is what
// makes refresh rotation single-use: a superseded token loses the race even
// before it expires.
var ErrStaleRefreshToken = errors.New("stale refresh token")

// CreateUserParams carries the fields persisted for a new user. The password
// arrives pre-hashed; storage never sees plaintext credentials.
type CreateUserParams struct {
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL string
	PasswordHash  string
}

// UserUpdate patches mutable profile fields. Nil pointers leave the field
// untouched.
type UserUpdate struct {
	FullName      *string
	Email         *string
	AvatarURL     *string
	CoverImageURL *string
}

// CreateVideoParams carries the fields persisted for a new catalogue entry.
type CreateVideoParams struct {
	OwnerID         string
	Title           string
	Description     string
	VideoURL        string
	ThumbnailURL    string
	DurationSeconds int
	Published       bool
}

// VideoUpdate patches mutable video fields. Nil pointers leave the field
// untouched.
type VideoUpdate struct {
	Title       *string
	Description *string
	Published   *bool
}

// Repository exposes the datastore operations required by the API handlers
// and the auth service. Refresh-token writes are atomic per user: concurrent
// rotations against the same stale token see at most one winner.
type Repository interface {
	Ping(ctx context.Context) error

	CreateUser(params CreateUserParams) (models.User, error)
	GetUser(id string) (models.User, bool)
	FindUserByUsernameOrEmail(value string) (models.User, bool)
	UpdateUser(id string, update UserUpdate) (models.User, error)
	SetUserPassword(id, passwordHash string) error
	SetRefreshToken(id, token string) error
	RotateRefreshToken(id, presented, next string) error
	ClearRefreshToken(id string) error

	CreateVideo(params CreateVideoParams) (models.Video, error)
	GetVideo(id string) (models.Video, bool)
	ListVideos(ownerID string, includeUnpublished bool) []models.Video
	UpdateVideo(id string, update VideoUpdate) (models.Video, error)
	DeleteVideo(id string) error
	AddVideoViews(id string, delta int64) (models.Video, error)
}
