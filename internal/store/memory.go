package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vidshare/vidshare/internal/models"
)

// Memory keeps every record in process. A single mutex makes each operation
// atomic, including the two-record create and delete.
type Memory struct {
	mu       sync.Mutex
	videos   map[string]*models.Video
	order    []string
	channels map[string]*models.Channel
	views    []models.View
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		videos:   make(map[string]*models.Video),
		channels: make(map[string]*models.Channel),
		now:      time.Now,
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func cloneVideo(v *models.Video) models.Video {
	out := *v
	out.Tags = slices.Clone(v.Tags)
	out.Likes = slices.Clone(v.Likes)
	out.Dislikes = slices.Clone(v.Dislikes)
	return out
}

func cloneChannel(c *models.Channel) models.Channel {
	out := *c
	out.SubscribedChannels = slices.Clone(c.SubscribedChannels)
	out.Videos = slices.Clone(c.Videos)
	return out
}

func addToSet(set []string, id string) []string {
	if slices.Contains(set, id) {
		return set
	}
	return append(set, id)
}

func pull(set []string, id string) []string {
	return slices.DeleteFunc(set, func(s string) bool { return s == id })
}

func (m *Memory) FindVideo(_ context.Context, id string) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return models.Video{}, models.ErrNotFound
	}
	return cloneVideo(v), nil
}

func (m *Memory) FindVideos(_ context.Context, filter models.VideoFilter) ([]models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	search := strings.ToLower(filter.Search)
	matched := make([]models.Video, 0)
	for i := len(m.order) - 1; i >= 0; i-- {
		v := m.videos[m.order[i]]
		if search != "" && !strings.Contains(strings.ToLower(v.Title), search) {
			continue
		}
		if filter.ChannelID != "" && v.ChannelID != filter.ChannelID {
			continue
		}
		matched = append(matched, cloneVideo(v))
	}
	return page(matched, limit, offset), nil
}

func page(videos []models.Video, limit, offset int) []models.Video {
	if offset >= len(videos) {
		return []models.Video{}
	}
	end := min(offset+limit, len(videos))
	return videos[offset:end]
}

func (m *Memory) IncrementViews(_ context.Context, id string) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return models.Video{}, models.ErrNotFound
	}
	v.Views++
	return cloneVideo(v), nil
}

func (m *Memory) CreateVideo(_ context.Context, v models.Video) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[v.ChannelID]
	if !ok {
		return models.Video{}, fmt.Errorf("channel %s: %w", v.ChannelID, models.ErrDanglingReference)
	}

	now := m.now()
	created := v
	created.ID = uuid.NewString()
	created.Tags = slices.Clone(v.Tags)
	if created.Tags == nil {
		created.Tags = []string{}
	}
	created.Views = 0
	created.Likes = []string{}
	created.Dislikes = []string{}
	created.CreatedAt = now
	created.UpdatedAt = now

	m.videos[created.ID] = &created
	m.order = append(m.order, created.ID)
	ch.Videos = append(ch.Videos, created.ID)
	ch.UpdatedAt = now
	return cloneVideo(&created), nil
}

func (m *Memory) UpdateVideo(_ context.Context, id string, patch models.VideoPatch) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return models.Video{}, models.ErrNotFound
	}
	if patch.Title != nil {
		v.Title = *patch.Title
	}
	if patch.Description != nil {
		v.Description = *patch.Description
	}
	if patch.ImageURL != nil {
		v.ImageURL = *patch.ImageURL
	}
	if patch.VideoURL != nil {
		v.VideoURL = *patch.VideoURL
	}
	if patch.Tags != nil {
		v.Tags = slices.Clone(*patch.Tags)
	}
	v.UpdatedAt = m.now()
	return cloneVideo(v), nil
}

func (m *Memory) DeleteVideo(_ context.Context, id, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok || v.ChannelID != channelID {
		return models.ErrNotFound
	}
	delete(m.videos, id)
	m.order = pull(m.order, id)
	if ch, ok := m.channels[channelID]; ok {
		ch.Videos = pull(ch.Videos, id)
		ch.UpdatedAt = m.now()
	}
	return nil
}

func (m *Memory) Like(_ context.Context, videoID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[videoID]
	if !ok {
		return models.ErrNotFound
	}
	v.Likes = addToSet(v.Likes, channelID)
	v.Dislikes = pull(v.Dislikes, channelID)
	return nil
}

func (m *Memory) Dislike(_ context.Context, videoID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[videoID]
	if !ok {
		return models.ErrNotFound
	}
	v.Dislikes = addToSet(v.Dislikes, channelID)
	v.Likes = pull(v.Likes, channelID)
	return nil
}

func (m *Memory) RecordView(_ context.Context, view models.View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[view.VideoID]; !ok {
		return models.ErrNotFound
	}
	if view.ViewedAt.IsZero() {
		view.ViewedAt = m.now()
	}
	m.views = append(m.views, view)
	return nil
}

func (m *Memory) WatchHistory(_ context.Context, channelID string, limit, offset int) ([]models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit, offset = normalizePage(limit, offset)
	lastViewed := make(map[string]int)
	for i, view := range m.views {
		if view.ViewerChannelID == channelID {
			lastViewed[view.VideoID] = i
		}
	}
	ids := make([]string, 0, len(lastViewed))
	for id := range lastViewed {
		if _, ok := m.videos[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(a, b int) bool { return lastViewed[ids[a]] > lastViewed[ids[b]] })

	videos := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		videos = append(videos, cloneVideo(m.videos[id]))
	}
	return page(videos, limit, offset), nil
}

func (m *Memory) CreateChannel(_ context.Context, name, email, passwordHash string) (models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.channels {
		if c.Name == name || c.Email == email {
			return models.Channel{}, models.ErrConflict
		}
	}
	now := m.now()
	c := &models.Channel{
		ID:                 uuid.NewString(),
		Name:               name,
		Email:              email,
		Password:           passwordHash,
		SubscribedChannels: []string{},
		Videos:             []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	m.channels[c.ID] = c
	return cloneChannel(c), nil
}

func (m *Memory) FindChannel(_ context.Context, id string) (models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.channels[id]
	if !ok {
		return models.Channel{}, models.ErrNotFound
	}
	return cloneChannel(c), nil
}

func (m *Memory) FindChannelByEmail(_ context.Context, email string) (models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.channels {
		if c.Email == email {
			return cloneChannel(c), nil
		}
	}
	return models.Channel{}, models.ErrNotFound
}

func (m *Memory) UpdateChannel(_ context.Context, id string, patch models.ChannelPatch) (models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.channels[id]
	if !ok {
		return models.Channel{}, models.ErrNotFound
	}
	if patch.Name != nil {
		for otherID, other := range m.channels {
			if otherID != id && other.Name == *patch.Name {
				return models.Channel{}, models.ErrConflict
			}
		}
		c.Name = *patch.Name
	}
	if patch.Profile != nil {
		c.Profile = *patch.Profile
	}
	if patch.Banner != nil {
		c.Banner = *patch.Banner
	}
	c.UpdatedAt = m.now()
	return cloneChannel(c), nil
}

func (m *Memory) ChannelInfos(_ context.Context, ids []string) (map[string]models.ChannelInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	infos := make(map[string]models.ChannelInfo, len(ids))
	for _, id := range ids {
		if c, ok := m.channels[id]; ok {
			infos[id] = c.Info()
		}
	}
	return infos, nil
}

func (m *Memory) Subscribe(_ context.Context, subscriberID, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.channels[subscriberID]
	if !ok {
		return models.ErrNotFound
	}
	target, ok := m.channels[targetID]
	if !ok {
		return models.ErrNotFound
	}
	if slices.Contains(sub.SubscribedChannels, targetID) {
		return nil
	}
	sub.SubscribedChannels = append(sub.SubscribedChannels, targetID)
	target.Subscribers++
	return nil
}

func (m *Memory) Unsubscribe(_ context.Context, subscriberID, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.channels[subscriberID]
	if !ok {
		return models.ErrNotFound
	}
	if !slices.Contains(sub.SubscribedChannels, targetID) {
		return nil
	}
	sub.SubscribedChannels = pull(sub.SubscribedChannels, targetID)
	if target, ok := m.channels[targetID]; ok && target.Subscribers > 0 {
		target.Subscribers--
	}
	return nil
}
