package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Vishal-jatia/youtube-backend/internal/apperr"
	"github.com/Vishal-jatia/youtube-backend/internal/models"
)

// PostgresConfig describes how the repository initialises its connection
// pool.
type PostgresConfig struct {
	DSN             string
	MaxConnections  int32
	MinConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ApplicationName string
}

// PostgresStore persists users and videos to Postgres, allowing multiple API
// replicas to share state. Refresh-token rotation relies on a conditional
// UPDATE so the compare-and-swap is atomic per row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    full_name TEXT NOT NULL,
    avatar_url TEXT NOT NULL DEFAULT '',
    cover_image_url TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    refresh_token TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS videos (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    video_url TEXT NOT NULL,
    thumbnail_url TEXT NOT NULL DEFAULT '',
    duration_seconds INTEGER NOT NULL DEFAULT 0,
    published BOOLEAN NOT NULL DEFAULT FALSE,
    views BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS videos_owner_idx ON videos (owner_id);
`

// NewPostgresStore opens the connection pool and ensures the schema exists.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolCfg.MinConns = cfg.MinConnections
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if name := strings.TrimSpace(cfg.ApplicationName); name != "" {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = name
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool, bounded by the provided context.
func (s *PostgresStore) Close(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.pool.Close()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.AvatarURL, &user.CoverImageURL, &user.PasswordHash,
		&user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

func (s *PostgresStore) CreateUser(params CreateUserParams) (models.User, error) {
	now := time.Now().UTC()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      normalizeIdentifier(params.Username),
		Email:         normalizeIdentifier(params.Email),
		FullName:      strings.TrimSpace(params.FullName),
		AvatarURL:     strings.TrimSpace(params.AvatarURL),
		CoverImageURL: strings.TrimSpace(params.CoverImageURL),
		PasswordHash:  params.PasswordHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := s.pool.Exec(context.Background(), `
INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, '', $8, $8)
`, user.ID, user.Username, user.Email, user.FullName, user.AvatarURL, user.CoverImageURL, user.PasswordHash, now)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apperr.Conflict("username or email already in use")
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUser(id string) (models.User, bool) {
	row := s.pool.QueryRow(context.Background(),
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

func (s *PostgresStore) FindUserByUsernameOrEmail(value string) (models.User, bool) {
	needle := normalizeIdentifier(value)
	if needle == "" {
		return models.User{}, false
	}
	row := s.pool.QueryRow(context.Background(),
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, needle)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

func (s *PostgresStore) UpdateUser(id string, update UserUpdate) (models.User, error) {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	add := func(column, value string) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Email != nil {
		email := normalizeIdentifier(*update.Email)
		if email == "" {
			return models.User{}, apperr.Validation("email is required")
		}
		add("email", email)
	}
	if update.FullName != nil {
		fullName := strings.TrimSpace(*update.FullName)
		if fullName == "" {
			return models.User{}, apperr.Validation("fullName is required")
		}
		add("full_name", fullName)
	}
	if update.AvatarURL != nil {
		add("avatar_url", strings.TrimSpace(*update.AvatarURL))
	}
	if update.CoverImageURL != nil {
		add("cover_image_url", strings.TrimSpace(*update.CoverImageURL))
	}
	if len(sets) == 0 {
		user, ok := s.GetUser(id)
		if !ok {
			return models.User{}, apperr.NotFound(fmt.Sprintf("user %s not found", id))
		}
		return user, nil
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s, updated_at = NOW() WHERE id = $%d RETURNING `+userColumns,
		strings.Join(sets, ", "), len(args))
	user, err := scanUser(s.pool.QueryRow(context.Background(), query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, apperr.NotFound(fmt.Sprintf("user %s not found", id))
		}
		if isUniqueViolation(err) {
			return models.User{}, apperr.Conflict("email already in use")
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) SetUserPassword(id, passwordHash string) error {
	tag, err := s.pool.Exec(context.Background(),
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("set user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(fmt.Sprintf("user %s not found", id))
	}
	return nil
}

func (s *PostgresStore) SetRefreshToken(id, token string) error {
	tag, err := s.pool.Exec(context.Background(),
		`UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2`, token, id)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(fmt.Sprintf("user %s not found", id))
	}
	return nil
}

// RotateRefreshToken performs the compare-and-swap in a single conditional
// UPDATE; the database guarantees at most one concurrent rotation wins.
func (s *PostgresStore) RotateRefreshToken(id, presented, next string) error {
	tag, err := s.pool.Exec(context.Background(), `
UPDATE users SET refresh_token = $1, updated_at = NOW()
WHERE id = $2 AND refresh_token <> '' AND refresh_token = $3
`, next, id, presented)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleRefreshToken
	}
	return nil
}

func (s *PostgresStore) ClearRefreshToken(id string) error {
	_, err := s.pool.Exec(context.Background(),
		`UPDATE users SET refresh_token = '', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

const videoColumns = `id, owner_id, title, description, video_url, thumbnail_url, duration_seconds, published, views, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	err := row.Scan(
		&video.ID, &video.OwnerID, &video.Title, &video.Description,
		&video.VideoURL, &video.ThumbnailURL, &video.DurationSeconds,
		&video.Published, &video.Views, &video.CreatedAt, &video.UpdatedAt,
	)
	return video, err
}

func (s *PostgresStore) CreateVideo(params CreateVideoParams) (models.Video, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return models.Video{}, apperr.Validation("title is required")
	}
	videoURL := strings.TrimSpace(params.VideoURL)
	if videoURL == "" {
		return models.Video{}, apperr.Validation("videoUrl is required")
	}
	now := time.Now().UTC()
	video := models.Video{
		ID:              uuid.NewString(),
		OwnerID:         params.OwnerID,
		Title:           title,
		Description:     strings.TrimSpace(params.Description),
		VideoURL:        videoURL,
		ThumbnailURL:    strings.TrimSpace(params.ThumbnailURL),
		DurationSeconds: params.DurationSeconds,
		Published:       params.Published,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	_, err := s.pool.Exec(context.Background(), `
INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration_seconds, published, views, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $9)
`, video.ID, video.OwnerID, video.Title, video.Description, video.VideoURL, video.ThumbnailURL, video.DurationSeconds, video.Published, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Video{}, apperr.NotFound(fmt.Sprintf("user %s not found", params.OwnerID))
		}
		return models.Video{}, fmt.Errorf("create video: %w", err)
	}
	return video, nil
}

func (s *PostgresStore) GetVideo(id string) (models.Video, bool) {
	row := s.pool.QueryRow(context.Background(),
		`SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	video, err := scanVideo(row)
	if err != nil {
		return models.Video{}, false
	}
	return video, true
}

func (s *PostgresStore) ListVideos(ownerID string, includeUnpublished bool) []models.Video {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE ($1 = '' OR owner_id = $1)`
	if !includeUnpublished {
		query += ` AND published`
	}
	query += ` ORDER BY created_at`
	rows, err := s.pool.Query(context.Background(), query, ownerID)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil
		}
		videos = append(videos, video)
	}
	return videos
}

func (s *PostgresStore) UpdateVideo(id string, update VideoUpdate) (models.Video, error) {
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return models.Video{}, apperr.Validation("title is required")
		}
		args = append(args, title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if update.Description != nil {
		args = append(args, strings.TrimSpace(*update.Description))
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if update.Published != nil {
		args = append(args, *update.Published)
		sets = append(sets, fmt.Sprintf("published = $%d", len(args)))
	}
	if len(sets) == 0 {
		video, ok := s.GetVideo(id)
		if !ok {
			return models.Video{}, apperr.NotFound(fmt.Sprintf("video %s not found", id))
		}
		return video, nil
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE videos SET %s, updated_at = NOW() WHERE id = $%d RETURNING `+videoColumns,
		strings.Join(sets, ", "), len(args))
	video, err := scanVideo(s.pool.QueryRow(context.Background(), query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, apperr.NotFound(fmt.Sprintf("video %s not found", id))
		}
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}
	return video, nil
}

func (s *PostgresStore) DeleteVideo(id string) error {
	tag, err := s.pool.Exec(context.Background(), `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(fmt.Sprintf("video %s not found", id))
	}
	return nil
}

func (s *PostgresStore) AddVideoViews(id string, delta int64) (models.Video, error) {
	row := s.pool.QueryRow(context.Background(), `
UPDATE videos SET views = views + $1 WHERE id = $2 RETURNING `+videoColumns, delta, id)
	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, apperr.NotFound(fmt.Sprintf("video %s not found", id))
		}
		return models.Video{}, fmt.Errorf("add video views: %w", err)
	}
	return video, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

var _ Repository = (*PostgresStore)(nil)
