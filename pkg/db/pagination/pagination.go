package pagination

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 250
)

// Pagination is bound from query strings. An out-of-range PageSize is clamped by
// Size rather than rejected.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=10"`
}

// Size clamps the requested page size into [1, MaxPageSize].
func (p Pagination) Size() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

// Cursor marks the last row of a page in (created_at desc, id desc) order.
type Cursor struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Position returns the cursor's row key. ok is false for tokens that were not
// produced by EncodeCursor.
func (c Cursor) Position() (id int64, createdAt time.Time, ok bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.ID), 10, 64)
	if err != nil || id <= 0 {
		return 0, time.Time{}, false
	}
	createdAt, err = time.Parse(time.RFC3339Nano, c.CreatedAt)
	if err != nil {
		return 0, time.Time{}, false
	}
	return id, createdAt, true
}

type PageInfo struct {
	NextPageToken     string `json:"next_page_token"`
	PreviousPageToken string `json:"previous_page_token"`
	HasMore           bool   `json:"has_more"`
}

// EncodeCursor renders a URL-safe page token.
func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}
	return &cursor, nil
}

// TokenAt is the page token for a row keyed by id and createdAt.
func TokenAt(id string, createdAt time.Time) string {
	token, err := EncodeCursor(Cursor{ID: id, CreatedAt: createdAt.UTC().Format(time.RFC3339Nano)})
	if err != nil {
		return ""
	}
	return token
}

// BuildCursorPageInfo expects data fetched with limit+1 rows. The extra row only
// signals that another page exists; the token points at the last row kept.
func BuildCursorPageInfo[T any](data []*T, limit int32, extractCursor func(*T) string) *PageInfo {
	if len(data) == 0 {
		return &PageInfo{HasMore: false}
	}

	hasMore := len(data) > int(limit)
	if hasMore {
		data = data[:limit]
	}

	info := &PageInfo{HasMore: hasMore}
	if hasMore {
		info.NextPageToken = extractCursor(data[len(data)-1])
	}
	return info
}
