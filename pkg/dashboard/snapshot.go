// Package dashboard reads assignment and lecture deadlines from the LMS
// scraping backend.
package dashboard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smith3v/lms-reminder/pkg/logger"
)

type Kind string

const (
	KindAssignment Kind = "assignment"
	KindVideo      Kind = "video"
)

// Item is an assignment or video lecture as seen by the reminder engine.
// Due is the assignment due time or the video end time.
type Item struct {
	Kind       Kind
	ID         string
	CourseID   string
	CourseName string
	Title      string
	Start      time.Time
	Due        time.Time
	Completed  bool
}

// Key identifies the item across snapshots.
func (i Item) Key() string {
	id := i.ID
	if id == "" {
		id = i.Title
	}
	return string(i.Kind) + ":" + i.CourseID + ":" + id
}

type Snapshot struct {
	Assignments []Item
	// Videos holds unfinished lectures (available and unchecked, merged).
	Videos []Item
	// UpcomingVideos holds lectures that have not opened yet.
	UpcomingVideos []Item
}

func (s Snapshot) Len() int {
	return len(s.Assignments) + len(s.Videos) + len(s.UpcomingVideos)
}

type rawSnapshot struct {
	UpcomingAssignments []rawItem `json:"upcoming_assignments"`
	AvailableVods       []rawItem `json:"available_vods"`
	UncheckedVods       []rawItem `json:"unchecked_vods"`
	UpcomingVods        []rawItem `json:"upcoming_vods"`
}

type rawItem struct {
	ID          flexString `json:"id"`
	CourseID    flexString `json:"course_id"`
	CourseName  string     `json:"course_name"`
	Title       string     `json:"title"`
	DueDate     string     `json:"due_date"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	IsCompleted bool       `json:"is_completed"`
	IsSubmitted bool       `json:"is_submitted"`
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp parses backend timestamps. Values without a zone are read
// in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0).In(loc), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// Decode turns a dashboard payload into a Snapshot. Items with missing or
// malformed timestamps are skipped individually.
func Decode(data []byte, loc *time.Location) (Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode dashboard: %w", err)
	}

	var snap Snapshot
	for _, r := range raw.UpcomingAssignments {
		due, err := ParseTimestamp(r.DueDate, loc)
		if err != nil {
			logger.Warn("skipping assignment with bad due date", "title", r.Title, "course", r.CourseName, "error", err)
			continue
		}
		snap.Assignments = append(snap.Assignments, r.item(KindAssignment, time.Time{}, due, r.IsCompleted || r.IsSubmitted))
	}

	seen := make(map[string]bool)
	for _, r := range append(raw.AvailableVods, raw.UncheckedVods...) {
		end, err := ParseTimestamp(r.EndDate, loc)
		if err != nil {
			logger.Warn("skipping video with bad end date", "title", r.Title, "course", r.CourseName, "error", err)
			continue
		}
		start, _ := ParseTimestamp(r.StartDate, loc)
		item := r.item(KindVideo, start, end, r.IsCompleted)
		if seen[item.Key()] {
			continue
		}
		seen[item.Key()] = true
		snap.Videos = append(snap.Videos, item)
	}

	for _, r := range raw.UpcomingVods {
		start, err := ParseTimestamp(r.StartDate, loc)
		if err != nil {
			logger.Warn("skipping upcoming video with bad start date", "title", r.Title, "course", r.CourseName, "error", err)
			continue
		}
		end, _ := ParseTimestamp(r.EndDate, loc)
		snap.UpcomingVideos = append(snap.UpcomingVideos, r.item(KindVideo, start, end, r.IsCompleted))
	}
	return snap, nil
}

func (r rawItem) item(kind Kind, start, due time.Time, completed bool) Item {
	return Item{
		Kind:       kind,
		ID:         string(r.ID),
		CourseID:   string(r.CourseID),
		CourseName: r.CourseName,
		Title:      r.Title,
		Start:      start,
		Due:        due,
		Completed:  completed,
	}
}
