// Package settings holds the per-category reminder lead times and toggles.
package settings

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrUnknownCategory = errors.New("unknown reminder category")
	ErrInvalidOffset   = errors.New("invalid reminder offset")
	ErrInvalidToggle   = errors.New("toggle value must be on or off")
)

type Category string

const (
	CategoryUnfinishedAssignment Category = "unfinished-assignment"
	CategoryFinishedAssignment   Category = "finished-assignment"
	CategoryUnfinishedVideo      Category = "unfinished-video"
	CategoryVideoOpen            Category = "video-open"
	CategoryAISummary            Category = "ai-summary"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryUnfinishedAssignment,
	CategoryFinishedAssignment,
	CategoryUnfinishedVideo,
	CategoryVideoOpen,
	CategoryAISummary,
}

func ParseCategory(value string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	if slices.Contains(Categories, c) {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, value)
}

// IsToggle reports whether the category is an on/off switch rather than a
// list of offsets.
func (c Category) IsToggle() bool {
	return c == CategoryVideoOpen || c == CategoryAISummary
}

// Offset is a lead-time token. OffsetDisabled is stored as-is but never
// schedules anything.
type Offset string

const (
	OffsetDisabled Offset = "0"
	Offset1h       Offset = "1h"
	Offset5h       Offset = "5h"
	Offset12h      Offset = "12h"
	Offset1d       Offset = "1d"
)

var offsetDurations = map[Offset]time.Duration{
	Offset1h:  time.Hour,
	Offset5h:  5 * time.Hour,
	Offset12h: 12 * time.Hour,
	Offset1d:  24 * time.Hour,
}

func ParseOffset(value string) (Offset, error) {
	token := strings.ToLower(strings.TrimSpace(value))
	switch token {
	case "0", "off":
		return OffsetDisabled, nil
	case "24h":
		return Offset1d, nil
	}
	o := Offset(token)
	if _, ok := offsetDurations[o]; !ok {
		return "", fmt.Errorf("%w: %q (expected 1h, 5h, 12h, 1d or 0)", ErrInvalidOffset, value)
	}
	return o, nil
}

// Duration returns zero for the disabled sentinel and for unknown tokens.
func (o Offset) Duration() time.Duration {
	return offsetDurations[o]
}

func (o Offset) Disabled() bool {
	return o.Duration() <= 0
}

type Settings struct {
	UnfinishedAssignments []Offset `json:"unfinishedAssignments"`
	FinishedAssignments   []Offset `json:"finishedAssignments"`
	UnfinishedVods        []Offset `json:"unfinishedVods"`
	VodOpen               bool     `json:"vodOpen"`
	AISummary             bool     `json:"aiSummary"`
}

func Defaults() Settings {
	return Settings{
		UnfinishedAssignments: []Offset{Offset1d},
		FinishedAssignments:   []Offset{},
		UnfinishedVods:        []Offset{Offset1d},
		VodOpen:               false,
		AISummary:             true,
	}
}

func (s Settings) Offsets(c Category) ([]Offset, error) {
	switch c {
	case CategoryUnfinishedAssignment:
		return slices.Clone(s.UnfinishedAssignments), nil
	case CategoryFinishedAssignment:
		return slices.Clone(s.FinishedAssignments), nil
	case CategoryUnfinishedVideo:
		return slices.Clone(s.UnfinishedVods), nil
	default:
		return nil, fmt.Errorf("%w: %q has no offsets", ErrUnknownCategory, c)
	}
}

// SetOffsets replaces the offsets of c with a deduplicated list ordered by
// lead time, shortest first. The disabled sentinel sorts first.
func (s *Settings) SetOffsets(c Category, offsets []Offset) error {
	normalized, err := normalizeOffsets(offsets)
	if err != nil {
		return err
	}
	switch c {
	case CategoryUnfinishedAssignment:
		s.UnfinishedAssignments = normalized
	case CategoryFinishedAssignment:
		s.FinishedAssignments = normalized
	case CategoryUnfinishedVideo:
		s.UnfinishedVods = normalized
	default:
		return fmt.Errorf("%w: %q has no offsets", ErrUnknownCategory, c)
	}
	return nil
}

func (s Settings) Toggle(c Category) (bool, error) {
	switch c {
	case CategoryVideoOpen:
		return s.VodOpen, nil
	case CategoryAISummary:
		return s.AISummary, nil
	default:
		return false, fmt.Errorf("%w: %q is not a toggle", ErrUnknownCategory, c)
	}
}

func (s *Settings) SetToggle(c Category, on bool) error {
	switch c {
	case CategoryVideoOpen:
		s.VodOpen = on
	case CategoryAISummary:
		s.AISummary = on
	default:
		return fmt.Errorf("%w: %q is not a toggle", ErrUnknownCategory, c)
	}
	return nil
}

// Apply sets category to the given offset tokens, or to on/off for toggles.
// Tokens may be space or comma separated; none clears an offset category.
func (s *Settings) Apply(categoryArg string, values []string) error {
	category, err := ParseCategory(categoryArg)
	if err != nil {
		return err
	}
	if category.IsToggle() {
		if len(values) != 1 {
			return ErrInvalidToggle
		}
		switch strings.ToLower(strings.TrimSpace(values[0])) {
		case "on", "true", "1":
			return s.SetToggle(category, true)
		case "off", "false", "0":
			return s.SetToggle(category, false)
		default:
			return fmt.Errorf("%w: %q", ErrInvalidToggle, values[0])
		}
	}
	offsets := make([]Offset, 0, len(values))
	for _, v := range values {
		for _, token := range strings.Split(v, ",") {
			if strings.TrimSpace(token) == "" {
				continue
			}
			o, err := ParseOffset(token)
			if err != nil {
				return err
			}
			offsets = append(offsets, o)
		}
	}
	return s.SetOffsets(category, offsets)
}

// Describe renders one line per category, e.g. "unfinished-assignment: 1h, 1d".
func (s Settings) Describe() string {
	var b strings.Builder
	for _, c := range Categories {
		b.WriteString(string(c))
		b.WriteString(": ")
		if c.IsToggle() {
			on, _ := s.Toggle(c)
			if on {
				b.WriteString("on")
			} else {
				b.WriteString("off")
			}
		} else {
			offsets, _ := s.Offsets(c)
			b.WriteString(FormatOffsets(offsets))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatOffsets(offsets []Offset) string {
	if len(offsets) == 0 {
		return "none"
	}
	parts := make([]string, len(offsets))
	for i, o := range offsets {
		parts[i] = string(o)
	}
	return strings.Join(parts, ", ")
}

func normalizeOffsets(offsets []Offset) ([]Offset, error) {
	out := make([]Offset, 0, len(offsets))
	for _, o := range offsets {
		parsed, err := ParseOffset(string(o))
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, parsed) {
			out = append(out, parsed)
		}
	}
	slices.SortFunc(out, func(a, b Offset) int {
		return cmp.Compare(a.Duration(), b.Duration())
	})
	return out, nil
}
