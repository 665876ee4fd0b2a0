package validate

import (
	"fmt"
	"strings"
)

// Text field length limits shared by the video and channel handlers.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxChannelNameLength = 50
	MaxTagLength         = 30
	MaxTags              = 20
	MaxURLLength         = 2048
)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func Title(s string) string       { return checkLen(s, MaxTitleLength, "title") }
func Description(s string) string { return checkLen(s, MaxDescriptionLength, "description") }
func URL(s string) string         { return checkLen(s, MaxURLLength, "url") }

// ChannelName also rejects blank names, since names identify channels publicly.
func ChannelName(s string) string {
	if strings.TrimSpace(s) == "" {
		return "name is required"
	}
	return checkLen(s, MaxChannelNameLength, "name")
}

func Tags(tags []string) string {
	if len(tags) > MaxTags {
		return fmt.Sprintf("at most %d tags are allowed", MaxTags)
	}
	for _, tag := range tags {
		if msg := checkLen(tag, MaxTagLength, "tag"); msg != "" {
			return msg
		}
	}
	return ""
}
