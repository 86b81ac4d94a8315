package diff

import (
	"hash/fnv"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/philfreshman/diffpack/pkg/archive"
)

// renameJaccardFactor scales the similarity threshold for the cheap
// line-set prefilter, so near-threshold candidates still reach the
// expensive diff pass.
const renameJaccardFactor = 0.7

// sameNameBoost rewards rename candidates that kept their filename.
const sameNameBoost = 1.2

// TreeBuilder computes the diff tree between two extracted packages.
type TreeBuilder struct {
	from archive.FileMap
	to   archive.FileMap

	fromFilePaths map[string]struct{}
	toFilePaths   map[string]struct{}
	fromDirs      map[string]struct{}
	toDirs        map[string]struct{}

	threshold float64
}

// NewTreeBuilder creates a builder with the given rename similarity
// threshold, clamped to [0, 1].
func NewTreeBuilder(threshold float64) *TreeBuilder {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	return &TreeBuilder{threshold: threshold}
}

// SetFrom sets the older version's file map.
func (b *TreeBuilder) SetFrom(files archive.FileMap) {
	b.from = files
	b.fromFilePaths = collectFilePaths(files)
	b.fromDirs = collectDirectories(files)
}

// SetTo sets the newer version's file map.
func (b *TreeBuilder) SetTo(files archive.FileMap) {
	b.to = files
	b.toFilePaths = collectFilePaths(files)
	b.toDirs = collectDirectories(files)
}

// Build computes the full diff tree rooted at "/". File nodes carry
// their own added/removed line counts; directory nodes aggregate their
// descendants and roll a status up from them.
func (b *TreeBuilder) Build() *Entry {
	var deleted, added []string
	for path := range b.fromFilePaths {
		if _, ok := b.toFilePaths[path]; !ok {
			deleted = append(deleted, path)
		}
	}
	for path := range b.toFilePaths {
		if _, ok := b.fromFilePaths[path]; !ok {
			added = append(added, path)
		}
	}
	// Deterministic candidate order; map iteration is not.
	sort.Strings(deleted)
	sort.Strings(added)

	renames := b.detectRenames(deleted, added)
	root := b.buildStructure()
	b.computeStats(root, renames)
	return root
}

// BuildTree is the one-shot form of the builder.
func BuildTree(from, to archive.FileMap, threshold float64) *Entry {
	b := NewTreeBuilder(threshold)
	b.SetFrom(from)
	b.SetTo(to)
	return b.Build()
}

// detectRenames pairs deleted paths with added paths. Phase one matches
// exact content through a hash table; phase two scores the remainder
// with a Jaccard prefilter on line sets before running the full line
// diff, keeping the best candidate at or above the threshold.
func (b *TreeBuilder) detectRenames(deleted, added []string) map[string]string {
	renames := make(map[string]string)
	used := make(map[string]struct{})

	delByHash := make(map[uint64][]string)
	for _, delPath := range deleted {
		if content, ok := fileContent(b.from, delPath); ok {
			h := hashContent(content)
			delByHash[h] = append(delByHash[h], delPath)
		}
	}

	for _, addPath := range added {
		addContent, ok := fileContent(b.to, addPath)
		if !ok {
			continue
		}
		for _, delPath := range delByHash[hashContent(addContent)] {
			if _, taken := used[delPath]; taken {
				continue
			}
			delContent, ok := fileContent(b.from, delPath)
			if ok && addContent == delContent {
				renames[addPath] = delPath
				used[delPath] = struct{}{}
				break
			}
		}
	}

	delLineSets := make(map[string]map[string]struct{})
	for _, delPath := range deleted {
		if _, taken := used[delPath]; taken {
			continue
		}
		if content, ok := fileContent(b.from, delPath); ok {
			delLineSets[delPath] = lineSet(content)
		}
	}

	for _, addPath := range added {
		if _, done := renames[addPath]; done {
			continue
		}
		addContent, ok := fileContent(b.to, addPath)
		if !ok {
			continue
		}

		addLines := lineSet(addContent)
		addName := baseName(addPath)

		var bestPath string
		var bestScore float64
		for _, delPath := range deleted {
			if _, taken := used[delPath]; taken {
				continue
			}
			delContent, ok := fileContent(b.from, delPath)
			if !ok {
				continue
			}
			if !b.canBeSimilar(delContent, addContent) {
				continue
			}
			if jaccard(addLines, delLineSets[delPath]) < b.threshold*renameJaccardFactor {
				continue
			}

			score := similarity(delContent, addContent)
			if baseName(delPath) == addName {
				score *= sameNameBoost
			}
			if score >= b.threshold && (bestPath == "" || score > bestScore) {
				bestPath = delPath
				bestScore = score
			}
		}

		if bestPath != "" {
			renames[addPath] = bestPath
			used[bestPath] = struct{}{}
		}
	}

	return renames
}

// canBeSimilar is a fast length-ratio reject before any diffing.
func (b *TreeBuilder) canBeSimilar(from, to string) bool {
	toLen := len(to)
	if toLen == 0 {
		toLen = 1
	}
	ratio := float64(len(from)) / float64(toLen)
	return ratio >= b.threshold && ratio <= 1/b.threshold
}

func (b *TreeBuilder) buildStructure() *Entry {
	all := make(map[string]struct{})
	for path := range b.from {
		all[path] = struct{}{}
	}
	for path := range b.to {
		all[path] = struct{}{}
	}
	for path := range b.fromDirs {
		all[path] = struct{}{}
	}
	for path := range b.toDirs {
		all[path] = struct{}{}
	}

	nodes := make(map[string]*Entry, len(all))
	children := make(map[string][]string)
	for path := range all {
		if path == "/" {
			continue
		}
		nodes[path] = &Entry{Path: path, Type: b.resolveType(path), Status: StatusUnchanged}
		parent := parentPath(path)
		children[parent] = append(children[parent], path)
	}

	root := &Entry{Path: "/", Type: EntryDirectory, Status: StatusUnchanged}
	root.Children = attachChildren("/", nodes, children)
	return root
}

func attachChildren(parent string, nodes map[string]*Entry, children map[string][]string) []*Entry {
	paths := children[parent]
	if len(paths) == 0 {
		return []*Entry{}
	}
	sort.Strings(paths)

	out := make([]*Entry, 0, len(paths))
	for _, path := range paths {
		node, ok := nodes[path]
		if !ok {
			continue
		}
		node.Children = attachChildren(path, nodes, children)
		out = append(out, node)
	}
	return out
}

func (b *TreeBuilder) resolveType(path string) EntryType {
	if entry, ok := b.from[path]; ok {
		return entryType(entry)
	}
	if entry, ok := b.to[path]; ok {
		return entryType(entry)
	}
	return EntryDirectory
}

func entryType(entry archive.Entry) EntryType {
	if entry.Type == archive.EntryFile {
		return EntryFile
	}
	return EntryDirectory
}

func (b *TreeBuilder) computeStats(node *Entry, renames map[string]string) (added, removed int) {
	if node.Type == EntryFile {
		return b.computeFileStats(node, renames)
	}

	allUnchanged := true
	for _, child := range node.Children {
		a, r := b.computeStats(child, renames)
		added += a
		removed += r
		if child.Status != StatusUnchanged {
			allUnchanged = false
		}
	}
	node.Added = added
	node.Removed = removed

	_, inFrom := b.fromDirs[node.Path]
	_, inTo := b.toDirs[node.Path]
	if node.Path == "/" {
		inFrom, inTo = true, true
	}
	switch {
	case !inFrom && inTo:
		node.Status = StatusAdded
	case inFrom && !inTo:
		node.Status = StatusRemoved
	case allUnchanged:
		node.Status = StatusUnchanged
	default:
		node.Status = StatusModified
	}
	return added, removed
}

func (b *TreeBuilder) computeFileStats(node *Entry, renames map[string]string) (int, int) {
	if oldPath, ok := renames[node.Path]; ok {
		node.Status = StatusRenamed
		node.OldPath = oldPath
		from, fromOK := fileContent(b.from, oldPath)
		to, toOK := fileContent(b.to, node.Path)
		if fromOK && toOK {
			node.Added, node.Removed = countDiff(from, to)
			return node.Added, node.Removed
		}
	}

	from, fromOK := fileContent(b.from, node.Path)
	to, toOK := fileContent(b.to, node.Path)
	switch {
	case fromOK && toOK && from == to:
		node.Status = StatusUnchanged
	case fromOK && toOK:
		node.Status = StatusModified
		node.Added, node.Removed = countDiff(from, to)
	case fromOK:
		node.Status = StatusRemoved
		node.Removed = countLines(from)
	case toOK:
		node.Status = StatusAdded
		node.Added = countLines(to)
	default:
		node.Status = StatusUnchanged
	}
	return node.Added, node.Removed
}

// countDiff returns the added and removed line counts between two file
// versions.
func countDiff(from, to string) (added, removed int) {
	for _, d := range lineDiffs(from, to) {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += countLines(d.Text)
		}
	}
	return added, removed
}

// similarity is the fraction of unchanged lines in a line diff.
func similarity(from, to string) float64 {
	if from == to {
		return 1
	}
	if from == "" || to == "" {
		return 0
	}

	var added, removed, unchanged int
	for _, d := range lineDiffs(from, to) {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		default:
			unchanged += n
		}
	}

	total := added + removed + unchanged
	if total == 0 {
		total = 1
	}
	return float64(unchanged) / float64(total)
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for line := range a {
		if _, ok := b[line]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func lineSet(content string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range splitLines(content) {
		set[line] = struct{}{}
	}
	return set
}

func hashContent(content string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(content))
	return h.Sum64()
}

func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func parentPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return "/"
	}
	return path[:i]
}

func collectFilePaths(files archive.FileMap) map[string]struct{} {
	paths := make(map[string]struct{})
	for path, entry := range files {
		if entry.Type == archive.EntryFile {
			paths[path] = struct{}{}
		}
	}
	return paths
}

// collectDirectories gathers explicit directory entries plus every
// ancestor of every path.
func collectDirectories(files archive.FileMap) map[string]struct{} {
	dirs := make(map[string]struct{})
	for path, entry := range files {
		if entry.Type == archive.EntryDirectory {
			dirs[path] = struct{}{}
		}
		for parent := parentPath(path); parent != "/"; parent = parentPath(parent) {
			dirs[parent] = struct{}{}
		}
	}
	return dirs
}

func fileContent(files archive.FileMap, path string) (string, bool) {
	entry, ok := files[path]
	if !ok || entry.Type != archive.EntryFile {
		return "", false
	}
	return entry.Content, true
}
