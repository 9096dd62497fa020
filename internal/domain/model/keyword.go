package model

import (
	"fmt"
	"strings"

	"jdcrawler-dashboard/internal/domain"
)

type Keyword struct {
	ID        int64     `json:"id"`
	Keyword   string    `json:"keyword"`
	IsActive  bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at"`
}

// NormalizeKeyword trims the text and rejects empty input.
func NormalizeKeyword(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", fmt.Errorf("%w: keyword cannot be empty", domain.ErrInvalidArgument)
	}
	return t, nil
}
