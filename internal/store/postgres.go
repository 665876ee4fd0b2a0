// Package store persists videos and channels. Postgres is the production
// backend; Memory backs local development and handler tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vidshare/vidshare/internal/database"
	"github.com/vidshare/vidshare/internal/models"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

const videoColumns = `id, channel_id, title, description, image_url, video_url, tags, views, likes, dislikes, created_at, updated_at`

const historyColumns = `v.id, v.channel_id, v.title, v.description, v.image_url, v.video_url, v.tags, v.views, v.likes, v.dislikes, v.created_at, v.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

type Postgres struct {
	db database.DBTX
}

func NewPostgres(db database.DBTX) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Ping(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction, rolling back when fn or the commit fails.
func (p *Postgres) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanVideo(row scanner) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.ChannelID, &v.Title, &v.Description, &v.ImageURL, &v.VideoURL,
		&v.Tags, &v.Views, &v.Likes, &v.Dislikes, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func collectVideos(rows pgx.Rows) ([]models.Video, error) {
	defer rows.Close()
	videos := make([]models.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// escapeLike makes a user search term literal inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (p *Postgres) FindVideo(ctx context.Context, id string) (models.Video, error) {
	v, err := scanVideo(p.db.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, models.ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video %s: %w", id, err)
	}
	return v, nil
}

func (p *Postgres) FindVideos(ctx context.Context, filter models.VideoFilter) ([]models.Video, error) {
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	rows, err := p.db.Query(ctx,
		`SELECT `+videoColumns+` FROM videos
		 WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
		   AND ($2 = '' OR channel_id = $2)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		escapeLike(filter.Search), filter.ChannelID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("select videos: %w", err)
	}
	return collectVideos(rows)
}

func (p *Postgres) IncrementViews(ctx context.Context, id string) (models.Video, error) {
	v, err := scanVideo(p.db.QueryRow(ctx,
		`UPDATE videos SET views = views + 1 WHERE id = $1 RETURNING `+videoColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, models.ErrNotFound
		}
		return models.Video{}, fmt.Errorf("increment views %s: %w", id, err)
	}
	return v, nil
}

// CreateVideo inserts the video and appends its id to the owning channel's
// video list in one transaction.
func (p *Postgres) CreateVideo(ctx context.Context, v models.Video) (models.Video, error) {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}

	var created models.Video
	err := p.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		created, err = scanVideo(tx.QueryRow(ctx,
			`INSERT INTO videos (channel_id, title, description, image_url, video_url, tags)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+videoColumns,
			v.ChannelID, v.Title, v.Description, v.ImageURL, v.VideoURL, tags,
		))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return fmt.Errorf("channel %s: %w", v.ChannelID, models.ErrDanglingReference)
			}
			return fmt.Errorf("insert video: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE channels SET videos = array_append(videos, $2), updated_at = now() WHERE id = $1`,
			v.ChannelID, created.ID,
		)
		if err != nil {
			return fmt.Errorf("append channel video: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("channel %s: %w", v.ChannelID, models.ErrDanglingReference)
		}
		return nil
	})
	if err != nil {
		return models.Video{}, err
	}
	return created, nil
}

func (p *Postgres) UpdateVideo(ctx context.Context, id string, patch models.VideoPatch) (models.Video, error) {
	v, err := scanVideo(p.db.QueryRow(ctx,
		`UPDATE videos SET
		   title = COALESCE($2, title),
		   description = COALESCE($3, description),
		   image_url = COALESCE($4, image_url),
		   video_url = COALESCE($5, video_url),
		   tags = COALESCE($6, tags),
		   updated_at = now()
		 WHERE id = $1 RETURNING `+videoColumns,
		id, patch.Title, patch.Description, patch.ImageURL, patch.VideoURL, patch.Tags,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, models.ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video %s: %w", id, err)
	}
	return v, nil
}

// DeleteVideo removes a video owned by channelID and pulls its id from the
// channel's list. Pulling an absent id is a no-op.
func (p *Postgres) DeleteVideo(ctx context.Context, id, channelID string) error {
	return p.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM videos WHERE id = $1 AND channel_id = $2`, id, channelID)
		if err != nil {
			return fmt.Errorf("delete video %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		if _, err := tx.Exec(ctx,
			`UPDATE channels SET videos = array_remove(videos, $2), updated_at = now() WHERE id = $1`,
			channelID, id,
		); err != nil {
			return fmt.Errorf("pull channel video: %w", err)
		}
		return nil
	})
}

func (p *Postgres) Like(ctx context.Context, videoID, channelID string) error {
	return p.react(ctx,
		`UPDATE videos SET
		   likes = CASE WHEN $2 = ANY(likes) THEN likes ELSE array_append(likes, $2) END,
		   dislikes = array_remove(dislikes, $2)
		 WHERE id = $1`,
		videoID, channelID)
}

func (p *Postgres) Dislike(ctx context.Context, videoID, channelID string) error {
	return p.react(ctx,
		`UPDATE videos SET
		   dislikes = CASE WHEN $2 = ANY(dislikes) THEN dislikes ELSE array_append(dislikes, $2) END,
		   likes = array_remove(likes, $2)
		 WHERE id = $1`,
		videoID, channelID)
}

// react runs a single-statement add-to-set/pull so the row stays consistent
// without a read-modify-write.
func (p *Postgres) react(ctx context.Context, query, videoID, channelID string) error {
	tag, err := p.db.Exec(ctx, query, videoID, channelID)
	if err != nil {
		return fmt.Errorf("react to video %s: %w", videoID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (p *Postgres) RecordView(ctx context.Context, view models.View) error {
	_, err := p.db.Exec(ctx,
		`INSERT INTO video_views (video_id, viewer_channel_id, country, city, browser, device)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)`,
		view.VideoID, view.ViewerChannelID, view.Country, view.City, view.Browser, view.Device,
	)
	if err != nil {
		return fmt.Errorf("insert video view: %w", err)
	}
	return nil
}

// WatchHistory lists the videos a channel has viewed, most recently viewed first.
func (p *Postgres) WatchHistory(ctx context.Context, channelID string, limit, offset int) ([]models.Video, error) {
	limit, offset = normalizePage(limit, offset)
	rows, err := p.db.Query(ctx,
		`SELECT `+historyColumns+` FROM videos v
		 JOIN (
		   SELECT video_id, max(viewed_at) AS last_viewed
		   FROM video_views WHERE viewer_channel_id = $1
		   GROUP BY video_id
		 ) h ON h.video_id = v.id
		 ORDER BY h.last_viewed DESC
		 LIMIT $2 OFFSET $3`,
		channelID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("select watch history: %w", err)
	}
	return collectVideos(rows)
}
