package server

import (
	"strconv"
	"strings"
)

// parseLimit reads an optional positive limit. Zero means "use the default".
func parseLimit(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil || parsed <= 0 {
		return 0, newValidationError("limit", "invalid_limit", "limit must be a positive integer")
	}
	return parsed, nil
}

type energyQuery struct {
	Period string `form:"period"`
	Date   string `form:"date"`
}
