package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionalTime(t *testing.T) {
	got, err := parseOptionalTime("", false)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseOptionalTime("2026-03-31", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), *got)

	got, err = parseOptionalTime("2026-03-31", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), *got)

	got, err = parseOptionalTime("2026-03-31T10:00:00+02:00", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 31, 8, 0, 0, 0, time.UTC), *got)

	_, err = parseOptionalTime("31/03/2026", false)
	assert.ErrorIs(t, err, errInvalidTimeParam)
}

func TestParseOptionalSnowflakeID(t *testing.T) {
	got, err := parseOptionalSnowflakeID(" ")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseOptionalSnowflakeID("1234")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), got.Int64())

	_, err = parseOptionalSnowflakeID("0")
	assert.ErrorIs(t, err, errInvalidIDParam)

	_, err = parseOptionalSnowflakeID("abc")
	assert.ErrorIs(t, err, errInvalidIDParam)
}
