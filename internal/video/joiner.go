package video

import (
	"context"
	"fmt"

	"github.com/vidshare/vidshare/internal/models"
)

// ChannelLookup returns the public projection for each id that exists.
type ChannelLookup interface {
	ChannelInfos(ctx context.Context, ids []string) (map[string]models.ChannelInfo, error)
}

// EnrichedVideo is a video with its owner's public projection merged in at the
// top level of the JSON object.
type EnrichedVideo struct {
	models.Video
	models.ChannelInfo
}

// Joiner merges channel projections into videos with one lookup per call,
// keyed by distinct channel id.
type Joiner struct {
	channels ChannelLookup
}

func NewJoiner(channels ChannelLookup) *Joiner {
	return &Joiner{channels: channels}
}

// Join preserves input order. A video whose channel does not exist fails the
// whole join with ErrDanglingReference.
func (j *Joiner) Join(ctx context.Context, videos []models.Video) ([]EnrichedVideo, error) {
	out := make([]EnrichedVideo, 0, len(videos))
	if len(videos) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(videos))
	seen := make(map[string]struct{}, len(videos))
	for _, v := range videos {
		if _, ok := seen[v.ChannelID]; ok {
			continue
		}
		seen[v.ChannelID] = struct{}{}
		ids = append(ids, v.ChannelID)
	}

	infos, err := j.channels.ChannelInfos(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup channel infos: %w", err)
	}

	for _, v := range videos {
		info, ok := infos[v.ChannelID]
		if !ok {
			return nil, fmt.Errorf("video %s references channel %s: %w", v.ID, v.ChannelID, models.ErrDanglingReference)
		}
		out = append(out, EnrichedVideo{Video: v, ChannelInfo: info})
	}
	return out, nil
}

func (j *Joiner) JoinOne(ctx context.Context, v models.Video) (EnrichedVideo, error) {
	joined, err := j.Join(ctx, []models.Video{v})
	if err != nil {
		return EnrichedVideo{}, err
	}
	return joined[0], nil
}
