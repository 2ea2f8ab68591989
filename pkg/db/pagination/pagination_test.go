package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenAtRoundTrip(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 789000000, time.UTC)
	token := TokenAt("1234", at)
	require.NotEmpty(t, token)
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)

	id, createdAt, ok := cursor.Position()
	require.True(t, ok)
	assert.Equal(t, int64(1234), id)
	assert.True(t, at.Equal(createdAt))
}

func TestCursorPositionRejectsForeignTokens(t *testing.T) {
	_, _, ok := Cursor{ID: "abc", CreatedAt: "2026-01-01T00:00:00Z"}.Position()
	assert.False(t, ok)

	_, _, ok = Cursor{ID: "7", CreatedAt: "yesterday"}.Position()
	assert.False(t, ok)

	_, err := DecodeCursor("%%%")
	assert.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	a, b, c := 1, 2, 3
	token := func(v *int) string { return TokenAt("9", time.Unix(int64(*v), 0)) }

	info := BuildCursorPageInfo([]*int{&a, &b, &c}, 2, token)
	assert.True(t, info.HasMore)
	assert.Equal(t, token(&b), info.NextPageToken)

	info = BuildCursorPageInfo([]*int{&a, &b}, 2, token)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)

	info = BuildCursorPageInfo[int](nil, 2, token)
	assert.False(t, info.HasMore)
}

func TestPaginationSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Size())
	assert.Equal(t, 25, Pagination{PageSize: 25}.Size())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 10000}.Size())
}
