// Package walker enumerates the files of a directory through ignore rules
package walker

import (
	"errors"
	"sync"
)

// ErrNotDirectory is returned when the scan root is missing or not a directory
var ErrNotDirectory = errors.New("not a directory")

// FileEntry is one scanned file. Size is nil when the file could not be
// stat'ed; the entry is kept anyway.
type FileEntry struct {
	Path string `json:"path"`
	Size *int64 `json:"size"`
}

// Result is the outcome of a Scan
type Result struct {
	// Entries are the absolute paths of every included file, in lexical walk
	// order.
	Entries []FileEntry
	// Skipped lists excluded or unreadable paths, relative to the root.
	Skipped []SkippedItem
}

// SkippedReason clarifies why a file/directory was not included.
type SkippedReason string

const (
	ReasonIgnoredHidden     SkippedReason = "Ignored (Hidden Rule)"
	ReasonIgnoredRule       SkippedReason = "Ignored (Ignore Rule)"
	ReasonIgnoredNested     SkippedReason = "Ignored (Nested .gitignore)"
	ReasonFilteredExtension SkippedReason = "Filtered (Extension Mismatch)"
	ReasonSkippedNotRegular SkippedReason = "Skipped (Not a Regular File)"
	ReasonSkippedPermError  SkippedReason = "Skipped (Permission Error)"
	ReasonSkippedWalkError  SkippedReason = "Skipped (Walk Error)"
	ReasonSkippedPathError  SkippedReason = "Skipped (Path Calculation Error)"
)

// SkippedItem holds information about a skipped path.
type SkippedItem struct {
	Path   string        `json:"path"`
	Reason SkippedReason `json:"reason"`
	IsDir  bool          `json:"is_dir"`
}

// SkippedTracker collects skipped items
type SkippedTracker struct {
	items []SkippedItem
	mutex sync.Mutex
}

// NewSkippedTracker creates a new SkippedTracker
func NewSkippedTracker(capacity int) *SkippedTracker {
	return &SkippedTracker{
		items: make([]SkippedItem, 0, capacity),
	}
}

// Track adds a skipped item to the tracker
func (st *SkippedTracker) Track(path string, reason SkippedReason, isDir bool) {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	st.items = append(st.items, SkippedItem{Path: path, Reason: reason, IsDir: isDir})
}

// Items returns a copy of the tracked items
func (st *SkippedTracker) Items() []SkippedItem {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	out := make([]SkippedItem, len(st.items))
	copy(out, st.items)
	return out
}

// Count returns the number of items tracked for reason
func (st *SkippedTracker) Count(reason SkippedReason) int {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	n := 0
	for _, item := range st.items {
		if item.Reason == reason {
			n++
		}
	}
	return n
}
