package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vidshare/vidshare/internal/models"
)

const channelColumns = `id, name, email, password, profile, banner, subscribers, subscribed_channels, videos, created_at, updated_at`

func scanChannel(row scanner) (models.Channel, error) {
	var c models.Channel
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Password, &c.Profile, &c.Banner,
		&c.Subscribers, &c.SubscribedChannels, &c.Videos, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (p *Postgres) CreateChannel(ctx context.Context, name, email, passwordHash string) (models.Channel, error) {
	c, err := scanChannel(p.db.QueryRow(ctx,
		`INSERT INTO channels (name, email, password) VALUES ($1, $2, $3) RETURNING `+channelColumns,
		name, email, passwordHash,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Channel{}, models.ErrConflict
		}
		return models.Channel{}, fmt.Errorf("insert channel: %w", err)
	}
	return c, nil
}

func (p *Postgres) FindChannel(ctx context.Context, id string) (models.Channel, error) {
	return p.findChannelBy(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = $1`, id)
}

func (p *Postgres) FindChannelByEmail(ctx context.Context, email string) (models.Channel, error) {
	return p.findChannelBy(ctx, `SELECT `+channelColumns+` FROM channels WHERE email = $1`, email)
}

func (p *Postgres) findChannelBy(ctx context.Context, query, arg string) (models.Channel, error) {
	c, err := scanChannel(p.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Channel{}, models.ErrNotFound
		}
		return models.Channel{}, fmt.Errorf("select channel: %w", err)
	}
	return c, nil
}

func (p *Postgres) UpdateChannel(ctx context.Context, id string, patch models.ChannelPatch) (models.Channel, error) {
	c, err := scanChannel(p.db.QueryRow(ctx,
		`UPDATE channels SET
		   name = COALESCE($2, name),
		   profile = COALESCE($3, profile),
		   banner = COALESCE($4, banner),
		   updated_at = now()
		 WHERE id = $1 RETURNING `+channelColumns,
		id, patch.Name, patch.Profile, patch.Banner,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Channel{}, models.ErrNotFound
		}
		if isUniqueViolation(err) {
			return models.Channel{}, models.ErrConflict
		}
		return models.Channel{}, fmt.Errorf("update channel %s: %w", id, err)
	}
	return c, nil
}

// ChannelInfos returns the restricted projection for every id that exists.
// Missing ids are absent from the map.
func (p *Postgres) ChannelInfos(ctx context.Context, ids []string) (map[string]models.ChannelInfo, error) {
	infos := make(map[string]models.ChannelInfo, len(ids))
	if len(ids) == 0 {
		return infos, nil
	}

	rows, err := p.db.Query(ctx,
		`SELECT id, name, profile, subscribers FROM channels WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("select channel infos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var info models.ChannelInfo
		if err := rows.Scan(&id, &info.Name, &info.Profile, &info.Subscribers); err != nil {
			return nil, fmt.Errorf("scan channel info: %w", err)
		}
		infos[id] = info
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel infos: %w", err)
	}
	return infos, nil
}

// Subscribe records subscriberID as following targetID. Subscribing twice is a
// no-op and does not bump the counter again.
func (p *Postgres) Subscribe(ctx context.Context, subscriberID, targetID string) error {
	return p.withTx(ctx, func(tx pgx.Tx) error {
		subscribed, err := lockSubscription(ctx, tx, subscriberID, targetID)
		if err != nil || subscribed {
			return err
		}

		tag, err := tx.Exec(ctx,
			`UPDATE channels SET subscribers = subscribers + 1 WHERE id = $1`, targetID)
		if err != nil {
			return fmt.Errorf("increment subscribers: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		if _, err := tx.Exec(ctx,
			`UPDATE channels SET subscribed_channels = array_append(subscribed_channels, $2), updated_at = now() WHERE id = $1`,
			subscriberID, targetID,
		); err != nil {
			return fmt.Errorf("append subscription: %w", err)
		}
		return nil
	})
}

func (p *Postgres) Unsubscribe(ctx context.Context, subscriberID, targetID string) error {
	return p.withTx(ctx, func(tx pgx.Tx) error {
		subscribed, err := lockSubscription(ctx, tx, subscriberID, targetID)
		if err != nil || !subscribed {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE channels SET subscribers = GREATEST(subscribers - 1, 0) WHERE id = $1`, targetID,
		); err != nil {
			return fmt.Errorf("decrement subscribers: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE channels SET subscribed_channels = array_remove(subscribed_channels, $2), updated_at = now() WHERE id = $1`,
			subscriberID, targetID,
		); err != nil {
			return fmt.Errorf("pull subscription: %w", err)
		}
		return nil
	})
}

func lockSubscription(ctx context.Context, tx pgx.Tx, subscriberID, targetID string) (bool, error) {
	var subscribed bool
	err := tx.QueryRow(ctx,
		`SELECT $2 = ANY(subscribed_channels) FROM channels WHERE id = $1 FOR UPDATE`,
		subscriberID, targetID,
	).Scan(&subscribed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, models.ErrNotFound
		}
		return false, fmt.Errorf("select subscription: %w", err)
	}
	return subscribed, nil
}
