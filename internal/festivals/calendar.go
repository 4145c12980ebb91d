// Package festivals holds the retail festival calendar and the rules that
// turn it into upcoming-festival notices with merchandising suggestions.
//
// The calendar ships embedded (calendar.yaml) and can be replaced at start-up
// with a file of the same shape:
//
//	festivals:
//	  - {name: "Diwali", date: "2026-11-08", category: "Festival"}
//
// Day arithmetic is done on civil dates in the location of the reference
// time, so "today" is whatever the caller's clock says it is.
package festivals

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
)

const dateLayout = "2006-01-02"

// DefaultDaysAhead is the look-ahead window used when the caller gives none.
const DefaultDaysAhead = 10

//go:embed calendar.yaml
var embedded []byte

// ErrInvalidCalendar reports a malformed calendar document.
var ErrInvalidCalendar = errors.New("invalid festival calendar")

var knownCategories = map[string]struct{}{
	domain.CategoryFestival:        {},
	domain.CategoryCommercial:      {},
	domain.CategorySalePeriod:      {},
	domain.CategoryNationalHoliday: {},
	domain.CategoryPublicHoliday:   {},
	domain.CategoryReligious:       {},
}

// Entry is one calendar row.
type Entry struct {
	Name     string `yaml:"name"`
	Date     string `yaml:"date"`
	Category string `yaml:"category"`

	year  int
	month time.Month
	day   int
}

type document struct {
	Festivals []Entry `yaml:"festivals"`
}

// Calendar is an immutable, validated festival list. Safe for concurrent use.
type Calendar struct {
	entries []Entry
}

// Default returns the embedded calendar.
func Default() *Calendar {
	c, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("festivals: embedded calendar: %v", err))
	}
	return c
}

// Load reads a calendar file; an empty path yields Default().
func Load(path string) (*Calendar, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("festivals: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML calendar document.
func Parse(b []byte) (*Calendar, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalendar, err)
	}
	out := make([]Entry, 0, len(doc.Festivals))
	for i, e := range doc.Festivals {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrInvalidCalendar, i)
		}
		d, err := time.Parse(dateLayout, strings.TrimSpace(e.Date))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: bad date %q", ErrInvalidCalendar, e.Name, e.Date)
		}
		if _, ok := knownCategories[e.Category]; !ok {
			return nil, fmt.Errorf("%w: %s: unknown category %q", ErrInvalidCalendar, e.Name, e.Category)
		}
		e.year, e.month, e.day = d.Date()
		out = append(out, e)
	}
	return &Calendar{entries: out}, nil
}

// Len reports the number of entries.
func (c *Calendar) Len() int { return len(c.entries) }

// daysUntil counts civil days from now to the entry, in now's location.
func (e Entry) daysUntil(now time.Time) int {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 12, 0, 0, 0, loc)
	at := time.Date(e.year, e.month, e.day, 12, 0, 0, 0, loc)
	return int(at.Sub(today).Round(24*time.Hour) / (24 * time.Hour))
}

func (e Entry) festival(days int) domain.Festival {
	f := domain.Festival{
		Name:            e.Name,
		Date:            e.Date,
		Category:        e.Category,
		DaysUntil:       days,
		IsToday:         days == 0,
		Recommendations: Recommend(e.Name, e.Category),
	}
	f.Notification = NotificationMessage(f)
	return f
}

// Upcoming returns the festivals with 0 <= days_until <= daysAhead, nearest
// first. A negative daysAhead is treated as DefaultDaysAhead.
func (c *Calendar) Upcoming(now time.Time, daysAhead int) []domain.Festival {
	if daysAhead < 0 {
		daysAhead = DefaultDaysAhead
	}
	out := []domain.Festival{}
	for _, e := range c.entries {
		if d := e.daysUntil(now); d >= 0 && d <= daysAhead {
			out = append(out, e.festival(d))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysUntil != out[j].DaysUntil {
			return out[i].DaysUntil < out[j].DaysUntil
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Today returns the festivals falling on now's date.
func (c *Calendar) Today(now time.Time) []domain.Festival {
	return c.Upcoming(now, 0)
}

// Next returns the nearest festival on or after now.
func (c *Calendar) Next(now time.Time) (domain.Festival, bool) {
	best, bestDays := -1, 0
	for i, e := range c.entries {
		d := e.daysUntil(now)
		if d < 0 {
			continue
		}
		if best < 0 || d < bestDays {
			best, bestDays = i, d
		}
	}
	if best < 0 {
		return domain.Festival{}, false
	}
	return c.entries[best].festival(bestDays), true
}

// InMonth lists the entries of a given month.
func (c *Calendar) InMonth(year int, month time.Month) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.year == year && e.month == month {
			out = append(out, e)
		}
	}
	return out
}

// Mentioned returns the next occurrence of every festival whose name appears
// in text (case-insensitive), nearest first.
func (c *Calendar) Mentioned(now time.Time, text string) []domain.Festival {
	low := strings.ToLower(text)
	seen := map[string]bool{}
	var out []domain.Festival
	for _, e := range c.entries {
		key := strings.ToLower(e.Name)
		if seen[key] || !strings.Contains(low, key) {
			continue
		}
		d := e.daysUntil(now)
		if d < 0 {
			continue
		}
		seen[key] = true
		out = append(out, e.festival(d))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysUntil < out[j].DaysUntil })
	return out
}
