package video

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/vidshare/vidshare/internal/models"
)

type fakeLookup struct {
	infos map[string]models.ChannelInfo
	err   error
	calls [][]string
}

func (f *fakeLookup) ChannelInfos(_ context.Context, ids []string) (map[string]models.ChannelInfo, error) {
	f.calls = append(f.calls, append([]string(nil), ids...))
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]models.ChannelInfo)
	for _, id := range ids {
		if info, ok := f.infos[id]; ok {
			out[id] = info
		}
	}
	return out, nil
}

func TestJoin_EmptyInput(t *testing.T) {
	lookup := &fakeLookup{}
	joined, err := NewJoiner(lookup).Join(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if joined == nil || len(joined) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", joined)
	}
	if len(lookup.calls) != 0 {
		t.Errorf("expected no lookups for empty input, got %d", len(lookup.calls))
	}

	body, _ := json.Marshal(joined)
	if string(body) != "[]" {
		t.Errorf("expected [] JSON, got %s", body)
	}
}

func TestJoin_PreservesOrderAndBatchesDistinctChannels(t *testing.T) {
	lookup := &fakeLookup{infos: map[string]models.ChannelInfo{
		"chA": {Name: "alice", Profile: "a.png", Subscribers: 3},
		"chB": {Name: "bob", Profile: "b.png", Subscribers: 7},
	}}
	videos := []models.Video{
		{ID: "v3", ChannelID: "chB"},
		{ID: "v1", ChannelID: "chA"},
		{ID: "v2", ChannelID: "chB"},
	}

	joined, err := NewJoiner(lookup).Join(context.Background(), videos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(joined) != 3 {
		t.Fatalf("expected 3 records, got %d", len(joined))
	}
	for i, want := range []struct{ id, name string }{{"v3", "bob"}, {"v1", "alice"}, {"v2", "bob"}} {
		if joined[i].ID != want.id || joined[i].Name != want.name {
			t.Errorf("record %d = %s/%s, want %s/%s", i, joined[i].ID, joined[i].Name, want.id, want.name)
		}
	}
	if len(lookup.calls) != 1 {
		t.Fatalf("expected one batched lookup, got %d", len(lookup.calls))
	}
	if got := lookup.calls[0]; len(got) != 2 || got[0] != "chB" || got[1] != "chA" {
		t.Errorf("expected distinct ids [chB chA], got %v", got)
	}
}

func TestJoin_JSONKeepsVideoIDAndOmitsChannelID(t *testing.T) {
	lookup := &fakeLookup{infos: map[string]models.ChannelInfo{
		"chA": {Name: "alice", Profile: "a.png", Subscribers: 3},
	}}
	joined, err := NewJoiner(lookup).Join(context.Background(), []models.Video{{ID: "v1", ChannelID: "chA", Title: "Intro"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body, err := json.Marshal(joined[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if fields["id"] != "v1" {
		t.Errorf("expected id to be the video id, got %v", fields["id"])
	}
	if fields["name"] != "alice" || fields["profile"] != "a.png" || fields["subscribers"] != float64(3) {
		t.Errorf("channel projection not merged at top level: %v", fields)
	}
	if fields["channelId"] != "chA" {
		t.Errorf("expected channelId from the video, got %v", fields["channelId"])
	}
	for _, private := range []string{"email", "password", "banner", "videos", "subscribedChannels"} {
		if _, ok := fields[private]; ok {
			t.Errorf("unexpected channel field %q in joined record", private)
		}
	}
}

func TestJoin_DanglingReference(t *testing.T) {
	lookup := &fakeLookup{infos: map[string]models.ChannelInfo{"chA": {Name: "alice"}}}
	videos := []models.Video{{ID: "v1", ChannelID: "chA"}, {ID: "v2", ChannelID: "ghost"}}

	_, err := NewJoiner(lookup).Join(context.Background(), videos)
	if !errors.Is(err, models.ErrDanglingReference) {
		t.Errorf("expected ErrDanglingReference, got %v", err)
	}
}

func TestJoin_LookupError(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("connection reset")}

	_, err := NewJoiner(lookup).Join(context.Background(), []models.Video{{ID: "v1", ChannelID: "chA"}})
	if err == nil || errors.Is(err, models.ErrDanglingReference) {
		t.Errorf("expected store error, got %v", err)
	}
}
