// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strings"
	"time"
)

// Normalization limits applied to incoming record fields.
const (
	MaxNameLength = 64
	MaxTagLength  = 16

	// DefaultName is used when a record is created without a display name.
	DefaultName = "Unknown"
)

// Record represents one leaderboard entry keyed by an external GUID.
// Fields mirror the persisted snapshot schema.
type Record struct {
	GUID      string     `json:"guid"`      // externally supplied identifier, unique, immutable
	Name      string     `json:"name"`      // display name, at most MaxNameLength runes
	Tag       string     `json:"tag"`       // short label, leading '#' stripped, at most MaxTagLength runes
	Score     float64    `json:"score"`     // ranking key, always finite
	UpdatedAt *time.Time `json:"updatedAt"` // stamped by the store on every mutation
}

// Fields carries the caller-supplied values for a create operation.
type Fields struct {
	Name  string
	Tag   string
	Score float64
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Name  *string
	Tag   *string
	Score *float64
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Tag == nil && p.Score == nil
}

// NewRecord builds a normalized Record from caller input.
// Returns ErrScoreNotFinite when the score is NaN or infinite.
func NewRecord(guid string, f Fields) (Record, error) {
	if !isFinite(f.Score) {
		return Record{}, ErrScoreNotFinite
	}
	return Record{
		GUID:  guid,
		Name:  NormalizeName(f.Name),
		Tag:   NormalizeTag(f.Tag),
		Score: f.Score,
	}, nil
}

// Merge applies a patch over an existing record and re-normalizes the
// result, so truncation rules hold even for untouched fields.
func Merge(current Record, p Patch) (Record, error) {
	f := Fields{
		Name:  current.Name,
		Tag:   current.Tag,
		Score: current.Score,
	}
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Tag != nil {
		f.Tag = *p.Tag
	}
	if p.Score != nil {
		f.Score = *p.Score
	}
	merged, err := NewRecord(current.GUID, f)
	if err != nil {
		return Record{}, err
	}
	merged.UpdatedAt = current.UpdatedAt
	return merged, nil
}

// NormalizeName clamps a display name to MaxNameLength runes, substituting
// DefaultName for an empty value.
func NormalizeName(s string) string {
	if s == "" {
		return DefaultName
	}
	return truncate(s, MaxNameLength)
}

// NormalizeTag strips one leading '#' and clamps to MaxTagLength runes.
func NormalizeTag(s string) string {
	s = strings.TrimPrefix(s, "#")
	return truncate(s, MaxTagLength)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
