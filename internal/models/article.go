// Package models defines the domain types for folio.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Article is one parsed JSON document from the articles directory.
//
// ID and Date are the only fields folio interprets. Every other top-level
// key is kept verbatim in Fields so a record survives a parse/marshal
// round-trip unchanged.
type Article struct {
	ID     string
	Date   string
	Time   time.Time // Date parsed by the parser; zero until parsed
	Fields map[string]json.RawMessage

	// Source is the file name the article was read from. Not serialized.
	Source string
}

// MarshalJSON writes the article as a single flat JSON object.
func (a Article) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(a.Fields)+2)
	for k, v := range a.Fields {
		out[k] = v
	}
	id, err := json.Marshal(a.ID)
	if err != nil {
		return nil, err
	}
	date, err := json.Marshal(a.Date)
	if err != nil {
		return nil, err
	}
	out["id"] = id
	out["date"] = date
	return json.Marshal(out)
}

// UnmarshalJSON splits a JSON object into ID, Date and the remaining Fields.
// Missing id/date leave the corresponding field empty; validation is the
// parser's job.
func (a *Article) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("article: expected JSON object")
	}
	var id, date string
	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &id); err != nil {
			return fmt.Errorf("article: id must be a string: %w", err)
		}
		delete(raw, "id")
	}
	if v, ok := raw["date"]; ok {
		if err := json.Unmarshal(v, &date); err != nil {
			return fmt.Errorf("article: date must be a string: %w", err)
		}
		delete(raw, "date")
	}
	a.ID = id
	a.Date = date
	a.Fields = raw
	return nil
}

// Field decodes an arbitrary extra field into dst. It reports false when the
// field is absent.
func (a Article) Field(name string, dst any) (bool, error) {
	v, ok := a.Fields[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return true, fmt.Errorf("article: field %s: %w", name, err)
	}
	return true, nil
}

// CatalogRow is the indexed representation of an article.
type CatalogRow struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	Date     string    `json:"date"`
	SortAt   time.Time `json:"sort_at"`
	Checksum string    `json:"checksum"`
}
