package vdom

import (
	"strconv"
	"strings"
)

const (
	segmentSeparator = "\x1f"
	eventSeparator   = "\x1e"
)

// Path is the structural address of a node below the mount point. Each
// segment is the node's key when it has one, otherwise its index among
// its siblings. The root list has the empty path.
type Path string

// Root is the path of the mount point's child list.
const Root Path = ""

// Child returns the path of the child at index with the given key.
func (p Path) Child(index int, key string) Path {
	seg := key
	if seg == "" {
		seg = strconv.Itoa(index)
	} else {
		seg = "k" + seg
	}
	if p == Root {
		return Path(seg)
	}
	return p + segmentSeparator + Path(seg)
}

// Segments returns the path's segments in order from the root.
func (p Path) Segments() []string {
	if p == Root {
		return nil
	}
	return strings.Split(string(p), segmentSeparator)
}

// EventKey returns the registry key for an event on the node at p.
func (p Path) EventKey(event string) string {
	return string(p) + eventSeparator + event
}

// String renders the path with '/' separators for logs.
func (p Path) String() string {
	return "/" + strings.ReplaceAll(string(p), segmentSeparator, "/")
}
