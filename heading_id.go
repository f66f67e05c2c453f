package kcdoc

import (
	"strconv"
	"strings"
)

// headingIDs hands out anchor ids for one document.
type headingIDs map[string]struct{}

func (ids headingIDs) assign(text string) string {
	candidate := strings.ReplaceAll(strings.ToLower(text), " ", "-")
	id := candidate
	for n := 1; ids.taken(id); n++ {
		id = candidate + strconv.Itoa(n)
	}
	ids[id] = struct{}{}
	return id
}

func (ids headingIDs) taken(id string) bool {
	_, ok := ids[id]
	return ok
}
