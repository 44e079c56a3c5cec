// Package paging turns transport-level page/limit strings into the window
// and ordering applied to a listing.
package paging

import (
	"strconv"
	"strings"

	"github.com/nhle/taskapp/internal/model"
)

// SortKey names the attribute a listing is ordered by.
type SortKey string

const (
	// Unordered leaves ordering to the store's stable natural order.
	Unordered SortKey = ""

	// SortByPriority orders by priority ordinal, ascending.
	SortByPriority SortKey = "priority"
)

// Default page and limit used when the transport receives none.
const (
	DefaultPage  = "0"
	DefaultLimit = "20"
)

// Page is a resolved listing window.
type Page struct {
	Offset  int
	Limit   int
	SortKey SortKey
}

// Parse validates page and limit and resolves them into a Page ordered by
// key. Non-numeric or negative input is rejected, never clamped.
func Parse(page, limit string, key SortKey) (Page, error) {
	p, err := parseCount("page", page)
	if err != nil {
		return Page{}, err
	}
	l, err := parseCount("limit", limit)
	if err != nil {
		return Page{}, err
	}
	if l == 0 {
		return Page{}, model.Errorf(model.ErrBadRequest, "limit must be greater than zero")
	}
	return Page{Offset: p * l, Limit: l, SortKey: key}, nil
}

// ForTasks resolves a page for task listings, which always sort by
// priority.
func ForTasks(page, limit string) (Page, error) {
	return Parse(page, limit, SortByPriority)
}

// Unsorted resolves a page for entities that carry no priority.
func Unsorted(page, limit string) (Page, error) {
	return Parse(page, limit, Unordered)
}

func parseCount(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, model.Errorf(model.ErrBadRequest, "%s %q is not a number", name, raw)
	}
	if n < 0 {
		return 0, model.Errorf(model.ErrBadRequest, "%s %d must not be negative", name, n)
	}
	return n, nil
}
