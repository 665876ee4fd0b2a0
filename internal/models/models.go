// Package models holds the records shared by the store and the HTTP handlers.
package models

import "time"

type Video struct {
	ID          string    `json:"id"`
	ChannelID   string    `json:"channelId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	VideoURL    string    `json:"videoUrl"`
	Tags        []string  `json:"tags"`
	Views       int64     `json:"views"`
	Likes       []string  `json:"likes"`
	Dislikes    []string  `json:"dislikes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Channel is the account that owns videos. Password holds the bcrypt hash and
// never leaves the process.
type Channel struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"-"`
	Password           string    `json:"-"`
	Profile            string    `json:"profile"`
	Banner             string    `json:"banner"`
	Subscribers        int64     `json:"subscribers"`
	SubscribedChannels []string  `json:"subscribedChannels"`
	Videos             []string  `json:"videos"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ChannelInfo is the restricted channel projection merged into video responses.
// It never carries the channel id.
type ChannelInfo struct {
	Name        string `json:"name"`
	Profile     string `json:"profile"`
	Subscribers int64  `json:"subscribers"`
}

func (c Channel) Info() ChannelInfo {
	return ChannelInfo{Name: c.Name, Profile: c.Profile, Subscribers: c.Subscribers}
}

type VideoFilter struct {
	Search    string
	ChannelID string
	Limit     int
	Offset    int
}

// VideoPatch lists the owner-editable fields; nil means unchanged.
type VideoPatch struct {
	Title       *string
	Description *string
	ImageURL    *string
	VideoURL    *string
	Tags        *[]string
}

func (p VideoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.ImageURL == nil && p.VideoURL == nil && p.Tags == nil
}

type ChannelPatch struct {
	Name    *string
	Profile *string
	Banner  *string
}

func (p ChannelPatch) Empty() bool {
	return p.Name == nil && p.Profile == nil && p.Banner == nil
}

// View is one recorded read of a video. ViewerChannelID is empty for anonymous
// viewers.
type View struct {
	VideoID         string
	ViewerChannelID string
	Country         string
	City            string
	Browser         string
	Device          string
	ViewedAt        time.Time
}
