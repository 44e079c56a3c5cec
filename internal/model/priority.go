package model

import (
	"fmt"
	"strings"
)

// Priority is the closed set of task priorities. The ordinal value is what
// gets persisted and what listings sort by.
type Priority int

const (
	PriorityCommon Priority = iota
	PriorityUrgent
	PriorityImportant
)

// Priorities lists every priority in ordinal order.
var Priorities = []Priority{PriorityCommon, PriorityUrgent, PriorityImportant}

var priorityNames = map[Priority]string{
	PriorityCommon:    "COMMON",
	PriorityUrgent:    "URGENT",
	PriorityImportant: "IMPORTANT",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

// ParsePriority matches token exactly against the priority names.
func ParsePriority(token string) (Priority, error) {
	for _, p := range Priorities {
		if priorityNames[p] == token {
			return p, nil
		}
	}
	return 0, Errorf(ErrBadRequest,
		"wrong priority type %q for task, it only supports %s", token, priorityList())
}

// ParsePriorityFold is ParsePriority after upper-casing token.
func ParsePriorityFold(token string) (Priority, error) {
	return ParsePriority(strings.ToUpper(strings.TrimSpace(token)))
}

func priorityList() string {
	names := make([]string, len(Priorities))
	for i, p := range Priorities {
		names[i] = p.String()
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// MarshalText encodes the priority by name so it can key JSON objects.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes a priority name, case-sensitively.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
