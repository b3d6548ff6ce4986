// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package lifecycle

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/thrifttags/internal/models"
)

// SortMode selects how column values are compared.
type SortMode string

const (
	SortText     SortMode = "text"
	SortNumber   SortMode = "number"
	SortCurrency SortMode = "currency"
	SortDate     SortMode = "date"
)

// ParseSortMode parses a mode name. Empty means text.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortText:
		return SortText, nil
	case SortNumber:
		return SortNumber, nil
	case SortCurrency:
		return SortCurrency, nil
	case SortDate:
		return SortDate, nil
	default:
		return "", models.NewValidationError("mode", "must be one of text, number, currency, date")
	}
}

// DefaultSortMode is the mode used for a column when none is given.
func DefaultSortMode(column string) SortMode {
	if normalizeColumn(column) == "date" {
		return SortDate
	}
	return SortText
}

// Column names accepted by SortEvents.
var eventColumns = map[string]func(models.Event) string{
	"name":        func(e models.Event) string { return e.Name },
	"location":    func(e models.Event) string { return e.Location },
	"host":        func(e models.Event) string { return e.Host },
	"privacy":     func(e models.Event) string { return e.Privacy.Label() },
	"date":        func(e models.Event) string { return e.Date },
	"time":        func(e models.Event) string { return e.Time },
	"owner_email": func(e models.Event) string { return e.OwnerEmail },
}

func normalizeColumn(column string) string {
	c := strings.ToLower(strings.TrimSpace(column))
	switch c {
	case "owneremail", "owner":
		return "owner_email"
	case "removedon":
		return "removed_on"
	}
	return c
}

// SortEvents stably sorts events in place by column, comparing values
// according to mode. Equal values keep their relative order.
func SortEvents(events []models.Event, column string, mode SortMode) error {
	get, ok := eventColumns[normalizeColumn(column)]
	if !ok {
		return models.NewValidationError("sort", "unknown column "+strconv.Quote(column))
	}
	if mode == "" {
		mode = SortText
	}

	keys := make([]sortKey, len(events))
	for i, ev := range events {
		keys[i] = makeKey(get(ev), mode)
	}
	idx := make([]int, len(events))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]].less(keys[idx[b]])
	})

	sorted := make([]models.Event, len(events))
	for i, j := range idx {
		sorted[i] = events[j]
	}
	copy(events, sorted)
	return nil
}

// SortHistoryRecords stably sorts records in place. "removed_on" (or
// "date_removed") sorts newest first; any other event column or "reason"
// sorts ascending as text.
func SortHistoryRecords(records []models.HistoryRecord, column string) error {
	col := normalizeColumn(column)
	if col == "" || col == "removed_on" || col == "date_removed" {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].RemovedOn.After(records[j].RemovedOn)
		})
		return nil
	}

	var get func(models.HistoryRecord) string
	if col == "reason" {
		get = func(r models.HistoryRecord) string { return string(r.Reason) }
	} else if f, ok := eventColumns[col]; ok {
		get = func(r models.HistoryRecord) string { return f(r.Event) }
	} else {
		return models.NewValidationError("sort", "unknown column "+strconv.Quote(column))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return get(records[i]) < get(records[j])
	})
	return nil
}

// sortKey is a precomputed comparison value.
type sortKey struct {
	text string
	num  float64
	when time.Time
	mode SortMode
}

func (k sortKey) less(o sortKey) bool {
	switch k.mode {
	case SortNumber, SortCurrency:
		return k.num < o.num
	case SortDate:
		return k.when.Before(o.when)
	default:
		return k.text < o.text
	}
}

func makeKey(v string, mode SortMode) sortKey {
	k := sortKey{mode: mode}
	switch mode {
	case SortNumber:
		k.num = parseNumber(v)
	case SortCurrency:
		k.num = parseNumber(strings.NewReplacer("$", "", ",", "").Replace(v))
	case SortDate:
		k.when = parseSortDate(v)
	default:
		k.text = strings.ToLower(v)
	}
	return k
}

// parseNumber returns 0 for anything that is not a number.
func parseNumber(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}

var sortDateLayouts = []string{models.DateLayout, time.RFC3339, "2006-01-02 15:04", "01/02/2006"}

// parseSortDate returns the zero time for values that are not dates.
func parseSortDate(v string) time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range sortDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
