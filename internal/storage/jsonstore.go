package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vishal-jatia/youtube-backend/internal/apperr"
	"github.com/Vishal-jatia/youtube-backend/internal/models"
)

type dataset struct {
	Users  map[string]models.User  `json:"users"`
	Videos map[string]models.Video `json:"videos"`
}

func newDataset() dataset {
	return dataset{
		Users:  make(map[string]models.User),
		Videos: make(map[string]models.Video),
	}
}

// Store is the JSON-file repository. All state lives in memory behind an
// RWMutex and is flushed to disk after every mutation; with an empty file
// path it degrades to a pure in-memory store for tests and development.
// Holding the mutex across read-modify-write makes refresh-token rotation
// atomic per process.
type Store struct {
	mu       sync.RWMutex
	filePath string
	data     dataset
}

// NewStore loads the dataset from filePath when the file exists, otherwise
// starts empty. An empty filePath disables persistence.
func NewStore(filePath string) (*Store, error) {
	store := &Store{filePath: filePath, data: newDataset()}
	if filePath == "" {
		return store, nil
	}
	raw, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("read datastore: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &store.data); err != nil {
			return nil, fmt.Errorf("decode datastore: %w", err)
		}
	}
	if store.data.Users == nil {
		store.data.Users = make(map[string]models.User)
	}
	if store.data.Videos == nil {
		store.data.Videos = make(map[string]models.Video)
	}
	return store, nil
}

// Ping always reports success for the file-backed store.
func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) persist() error {
	if s.filePath == "" {
		return nil
	}
	payload, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode datastore: %w", err)
	}
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create datastore directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "datastore-*.json")
	if err != nil {
		return fmt.Errorf("create datastore temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write datastore: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close datastore temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace datastore: %w", err)
	}
	return nil
}

// Users

func (s *Store) CreateUser(params CreateUserParams) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := normalizeIdentifier(params.Username)
	email := normalizeIdentifier(params.Email)
	for _, existing := range s.data.Users {
		if existing.Username == username || existing.Email == email {
			return models.User{}, apperr.Conflict("username or email already in use")
		}
	}

	now := time.Now().UTC()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      strings.TrimSpace(params.FullName),
		AvatarURL:     strings.TrimSpace(params.AvatarURL),
		CoverImageURL: strings.TrimSpace(params.CoverImageURL),
		PasswordHash:  params.PasswordHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.data.Users[user.ID] = user
	if err := s.persist(); err != nil {
		delete(s.data.Users, user.ID)
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) GetUser(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.data.Users[id]
	return user, ok
}

func (s *Store) FindUserByUsernameOrEmail(value string) (models.User, bool) {
	needle := normalizeIdentifier(value)
	if needle == "" {
		return models.User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.data.Users {
		if user.Username == needle || user.Email == needle {
			return user, true
		}
	}
	return models.User{}, false
}

func (s *Store) UpdateUser(id string, update UserUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[id]
	if !ok {
		return models.User{}, apperr.NotFound(fmt.Sprintf("user %s not found", id))
	}
	if update.Email != nil {
		email := normalizeIdentifier(*update.Email)
		if email == "" {
			return models.User{}, apperr.Validation("email is required")
		}
		for otherID, other := range s.data.Users {
			if otherID != id && other.Email == email {
				return models.User{}, apperr.Conflict("email already in use")
			}
		}
		user.Email = email
	}
	if update.FullName != nil {
		fullName := strings.TrimSpace(*update.FullName)
		if fullName == "" {
			return models.User{}, apperr.Validation("fullName is required")
		}
		user.FullName = fullName
	}
	if update.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*update.AvatarURL)
	}
	if update.CoverImageURL != nil {
		user.CoverImageURL = strings.TrimSpace(*update.CoverImageURL)
	}
	return s.saveUser(user)
}

func (s *Store) SetUserPassword(id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[id]
	if !ok {
		return apperr.NotFound(fmt.Sprintf("user %s not found", id))
	}
	user.PasswordHash = passwordHash
	_, err := s.saveUser(user)
	return err
}

func (s *Store) SetRefreshToken(id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[id]
	if !ok {
		return apperr.NotFound(fmt.Sprintf("user %s not found", id))
	}
	user.RefreshToken = token
	_, err := s.saveUser(user)
	return err
}

// RotateRefreshToken swaps the stored refresh token for next only when the
// presented value still matches. The mutex makes the compare-and-swap atomic,
// so concurrent rotations of the same stale token have exactly one winner.
func (s *Store) RotateRefreshToken(id, presented, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[id]
	if !ok {
		return ErrStaleRefreshToken
	}
	if user.RefreshToken == "" || user.RefreshToken != presented {
		return ErrStaleRefreshToken
	}
	user.RefreshToken = next
	_, err := s.saveUser(user)
	return err
}

// ClearRefreshToken logs the user out of the single stored session. Clearing
// an absent token is not an error.
func (s *Store) ClearRefreshToken(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.Users[id]
	if !ok {
		return nil
	}
	if user.RefreshToken == "" {
		return nil
	}
	user.RefreshToken = ""
	_, err := s.saveUser(user)
	return err
}

func (s *Store) saveUser(user models.User) (models.User, error) {
	previous := s.data.Users[user.ID]
	user.UpdatedAt = time.Now().UTC()
	s.data.Users[user.ID] = user
	if err := s.persist(); err != nil {
		s.data.Users[user.ID] = previous
		return models.User{}, err
	}
	return user, nil
}

// Videos

func (s *Store) CreateVideo(params CreateVideoParams) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Users[params.OwnerID]; !ok {
		return models.Video{}, apperr.NotFound(fmt.Sprintf("user %s not found", params.OwnerID))
	}

	now := time.Now().UTC()
	video := models.Video{
		ID:              uuid.NewString(),
		OwnerID:         params.OwnerID,
		Title:           strings.TrimSpace(params.Title),
		Description:     strings.TrimSpace(params.Description),
		VideoURL:        strings.TrimSpace(params.VideoURL),
		ThumbnailURL:    strings.TrimSpace(params.ThumbnailURL),
		DurationSeconds: params.DurationSeconds,
		Published:       params.Published,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if video.Title == "" {
		return models.Video{}, apperr.Validation("title is required")
	}
	if video.VideoURL == "" {
		return models.Video{}, apperr.Validation("videoUrl is required")
	}
	s.data.Videos[video.ID] = video
	if err := s.persist(); err != nil {
		delete(s.data.Videos, video.ID)
		return models.Video{}, err
	}
	return video, nil
}

func (s *Store) GetVideo(id string) (models.Video, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.data.Videos[id]
	return video, ok
}

func (s *Store) ListVideos(ownerID string, includeUnpublished bool) []models.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make([]models.Video, 0, len(s.data.Videos))
	for _, video := range s.data.Videos {
		if ownerID != "" && video.OwnerID != ownerID {
			continue
		}
		if !video.Published && !includeUnpublished {
			continue
		}
		videos = append(videos, video)
	}
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].CreatedAt.Before(videos[j].CreatedAt)
	})
	return videos
}

func (s *Store) UpdateVideo(id string, update VideoUpdate) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, apperr.NotFound(fmt.Sprintf("video %s not found", id))
	}
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Video{}, apperr.Validation("title is required")
		}
		video.Title = title
	}
	if update.Description != nil {
		video.Description = strings.TrimSpace(*update.Description)
	}
	if update.Published != nil {
		video.Published = *update.Published
	}
	return s.saveVideo(video)
}

func (s *Store) DeleteVideo(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return apperr.NotFound(fmt.Sprintf("video %s not found", id))
	}
	delete(s.data.Videos, id)
	if err := s.persist(); err != nil {
		s.data.Videos[id] = video
		return err
	}
	return nil
}

func (s *Store) AddVideoViews(id string, delta int64) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.data.Videos[id]
	if !ok {
		return models.Video{}, apperr.NotFound(fmt.Sprintf("video %s not found", id))
	}
	video.Views += delta
	return s.saveVideo(video)
}

func (s *Store) saveVideo(video models.Video) (models.Video, error) {
	previous := s.data.Videos[video.ID]
	video.UpdatedAt = time.Now().UTC()
	s.data.Videos[video.ID] = video
	if err := s.persist(); err != nil {
		s.data.Videos[video.ID] = previous
		return models.Video{}, err
	}
	return video, nil
}

func normalizeIdentifier(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

var _ Repository = (*Store)(nil)
