// Package diff builds file-tree diffs between two extracted package
// versions, with rename detection and per-file line counts.
package diff

// Status classifies how a path changed between the two versions.
type Status string

const (
	StatusAdded     Status = "added"
	StatusRemoved   Status = "removed"
	StatusModified  Status = "modified"
	StatusRenamed   Status = "renamed"
	StatusUnchanged Status = "unchanged"
)

// EntryType distinguishes file nodes from directory nodes.
type EntryType string

const (
	EntryFile      EntryType = "file"
	EntryDirectory EntryType = "directory"
)

// Entry is one node of the diff tree. Directory nodes aggregate the
// line counts of their descendants; file nodes carry their own.
type Entry struct {
	Path     string    `json:"path"`
	OldPath  string    `json:"oldPath,omitempty"`
	Type     EntryType `json:"fileType"`
	Status   Status    `json:"status"`
	Added    int       `json:"added"`
	Removed  int       `json:"removed"`
	Children []*Entry  `json:"children,omitempty"`
}

// FileDiff is the rendered diff for a single file. IsDiff is false when
// the payload is plain file content (unchanged file) or a placeholder
// message rather than diff-formatted text.
type FileDiff struct {
	Data   string `json:"data"`
	IsDiff bool   `json:"isDiff"`
}
