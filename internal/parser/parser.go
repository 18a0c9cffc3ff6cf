// Package parser decodes and encodes article JSON documents.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/folio/internal/models"
)

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	ErrMissingID   = errors.New("parser: missing id")
	ErrMissingDate = errors.New("parser: missing date")
)

// Parse decodes raw article JSON. The document must be an object carrying
// a string id and a string date in one of the supported layouts.
func Parse(data []byte) (*models.Article, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("parser: empty document")
	}

	var a models.Article
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return nil, fmt.Errorf("parser: decode: %w", err)
	}
	if strings.TrimSpace(a.ID) == "" {
		return nil, ErrMissingID
	}
	if strings.TrimSpace(a.Date) == "" {
		return nil, ErrMissingDate
	}

	t, err := ParseDate(a.Date)
	if err != nil {
		return nil, err
	}
	a.Time = t
	return &a, nil
}

// ParseDate parses s using the supported layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parser: unsupported date format %q", s)
}

// Marshal encodes an article back into JSON with a trailing newline.
func Marshal(a *models.Article) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("parser: marshal nil article")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("parser: encode: %w", err)
	}
	return append(data, '\n'), nil
}
