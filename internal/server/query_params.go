package server

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	errInvalidIDParam   = errors.New("invalid_snowflake_id")
	errInvalidTimeParam = errors.New("invalid_time")
)

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed <= 0 {
		return nil, errInvalidIDParam
	}
	return &parsed, nil
}

// parseOptionalTime accepts RFC 3339 or a bare calendar date. A bare date is
// midnight UTC, or the last instant of that day when endOfDay is set, so a
// created_to filter includes the whole day.
func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		parsed = parsed.UTC()
		return &parsed, nil
	}
	day, err := time.ParseInLocation(time.DateOnly, trimmed, time.UTC)
	if err != nil {
		return nil, errInvalidTimeParam
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &day, nil
}
