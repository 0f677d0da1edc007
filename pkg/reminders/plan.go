package reminders

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/smith3v/lms-reminder/pkg/dashboard"
	"github.com/smith3v/lms-reminder/pkg/delivery"
	"github.com/smith3v/lms-reminder/pkg/settings"
)

const timeLayout = "Jan 2 15:04"

// Reminder is one computed point-in-time notification.
type Reminder struct {
	FireAt   time.Time
	Title    string
	Body     string
	Category settings.Category
	// Offset is empty for video-open reminders, which fire at the start time.
	Offset settings.Offset
	Item   dashboard.Item
}

func (r Reminder) key() string {
	return string(r.Category) + "|" + r.Item.Key() + "|" + strconv.FormatInt(r.FireAt.Unix(), 10)
}

func (r Reminder) String() string {
	when := r.FireAt.Format("2006-01-02 15:04 MST")
	if r.Offset == "" {
		return fmt.Sprintf("%s %s (%s)", when, r.Title, r.Category)
	}
	return fmt.Sprintf("%s %s (%s, %s before)", when, r.Title, r.Category, r.Offset)
}

// Notification converts the reminder into a delivery request.
func (r Reminder) Notification() delivery.Notification {
	return delivery.Notification{
		FireAt:        r.FireAt,
		Title:         r.Title,
		Body:          r.Body,
		Category:      string(r.Category),
		ItemKind:      string(r.Item.Kind),
		ItemID:        r.Item.ID,
		CourseID:      r.Item.CourseID,
		CourseName:    r.Item.CourseName,
		RecordHistory: true,
	}
}

// Plan computes the reminders implied by s and snap at now. Only reminders
// firing strictly after now are returned; the result is deduplicated and
// ordered by fire time.
func (e *Engine) Plan(s settings.Settings, snap dashboard.Snapshot, now time.Time) []Reminder {
	var out []Reminder
	seen := make(map[string]bool)
	add := func(r Reminder) {
		if !r.FireAt.After(now) {
			return
		}
		if seen[r.key()] {
			return
		}
		seen[r.key()] = true
		out = append(out, r)
	}

	for _, item := range snap.Assignments {
		category := settings.CategoryUnfinishedAssignment
		offsets := s.UnfinishedAssignments
		if item.Completed {
			category = settings.CategoryFinishedAssignment
			offsets = s.FinishedAssignments
		}
		for _, offset := range offsets {
			if offset.Disabled() {
				continue
			}
			add(e.beforeDeadline(item, category, offset))
		}
	}

	for _, item := range snap.Videos {
		if item.Completed {
			continue
		}
		for _, offset := range s.UnfinishedVods {
			if offset.Disabled() {
				continue
			}
			add(e.beforeDeadline(item, settings.CategoryUnfinishedVideo, offset))
		}
	}

	if s.VodOpen {
		for _, item := range snap.UpcomingVideos {
			if item.Start.IsZero() {
				continue
			}
			add(e.atOpen(item))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].FireAt.Before(out[j].FireAt)
		}
		return out[i].Title < out[j].Title
	})
	return out
}

func (e *Engine) beforeDeadline(item dashboard.Item, category settings.Category, offset settings.Offset) Reminder {
	var body string
	switch category {
	case settings.CategoryFinishedAssignment:
		body = fmt.Sprintf("Submitted assignment closes in %s (%s).", offset, e.format(item.Due))
	case settings.CategoryUnfinishedVideo:
		body = fmt.Sprintf("Lecture must be watched within %s (%s).", offset, e.format(item.Due))
	default:
		body = fmt.Sprintf("Assignment due in %s (%s).", offset, e.format(item.Due))
	}
	return Reminder{
		FireAt:   item.Due.Add(-offset.Duration()),
		Title:    itemTitle(item),
		Body:     body,
		Category: category,
		Offset:   offset,
		Item:     item,
	}
}

func (e *Engine) atOpen(item dashboard.Item) Reminder {
	body := "Lecture is now open."
	if !item.Due.IsZero() {
		body = fmt.Sprintf("Lecture is now open until %s.", e.format(item.Due))
	}
	return Reminder{
		FireAt:   item.Start,
		Title:    itemTitle(item),
		Body:     body,
		Category: settings.CategoryVideoOpen,
		Item:     item,
	}
}

func (e *Engine) format(t time.Time) string {
	return t.In(e.location).Format(timeLayout)
}

func itemTitle(item dashboard.Item) string {
	if item.CourseName == "" {
		return item.Title
	}
	return "[" + item.CourseName + "] " + item.Title
}
