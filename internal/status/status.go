// Package status classifies every tracked item and staging-side orphan by
// comparing the pending tree, the preview tree, and the release manifest.
// Classification is a pure function of current disk and manifest state;
// nothing is persisted between invocations.
package status

// Code is the reconciliation state of one tracked item or orphan.
type Code int

const (
	// Synced: content identical in pending and preview.
	Synced Code = iota
	// Touched: content identical but the pending copy has a newer mtime.
	Touched
	// Modified: content differs between pending and preview.
	Modified
	// Staged: tracked but not yet copied into preview.
	Staged
	// Untracked: present in pending with no covering manifest entry.
	Untracked
	// Removed: present in preview with no covering manifest entry (orphan).
	Removed
)

func (c Code) String() string {
	switch c {
	case Synced:
		return "synced"
	case Touched:
		return "touched"
	case Modified:
		return "modified"
	case Staged:
		return "staged"
	case Untracked:
		return "untracked"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Line is one rendered status row. Path is the display path; folders carry
// a trailing slash.
type Line struct {
	Path               string
	Code               Code
	IsFolder           bool
	MissingFromPending bool
}

// Counters aggregates line counts per status code.
type Counters struct {
	Synced    int
	Modified  int
	Touched   int
	Staged    int
	Untracked int
	Removed   int
}

func (c *Counters) add(code Code) {
	switch code {
	case Synced:
		c.Synced++
	case Touched:
		c.Touched++
	case Modified:
		c.Modified++
	case Staged:
		c.Staged++
	case Untracked:
		c.Untracked++
	case Removed:
		c.Removed++
	}
}

// Report is the full classification of a workspace at one point in time.
type Report struct {
	Lines    []Line
	Counters Counters
}
