package trello

import (
	"fmt"
	"time"
)

// DefaultBoardPrefix is used for boards created by the suite.
const DefaultBoardPrefix = "PinAppBoard"

// Board is a snapshot of a remote board at the time it was fetched.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Credentials are sent as the key and token query parameters on every call.
type Credentials struct {
	Key   string
	Token string
}

// GenerateBoardName returns "<prefix>-<unix millis>".
func GenerateBoardName(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultBoardPrefix
	}
	return fmt.Sprintf("%s-%d", prefix, now.UnixMilli())
}

// AsMap exposes the board with its JSON field names, the shape scenario
// expectations and templates work with.
func (b *Board) AsMap() map[string]interface{} {
	if b == nil {
		return nil
	}
	return map[string]interface{}{
		"id":   b.ID,
		"name": b.Name,
		"url":  b.URL,
	}
}
