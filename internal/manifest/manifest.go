package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Sentinel errors for manifest operations.
var (
	ErrCorrupt          = errors.New("manifest corrupt")
	ErrAlreadyTracked   = errors.New("already tracked")
	ErrNotTracked       = errors.New("not tracked")
	ErrEscapesWorkspace = errors.New("path escapes workspace")
)

// Header is written when a manifest is first created.
const Header = `# Released Files (manifest)
# Add files (e.g., notebooks/01.ipynb) or folders with trailing / (e.g., data/)
# Lines starting with # are comments. Empty lines are ignored.
`

// Entry is one tracked path as recorded in the release manifest. Raw keeps
// the original spelling for display; Rel is the slash-separated path without
// the trailing folder marker.
type Entry struct {
	Raw      string
	Rel      string
	IsFolder bool
}

// FormatLine renders the manifest line for a path.
func FormatLine(rel string, isFolder bool) string {
	if isFolder {
		return rel + "/"
	}
	return rel
}

// Manifest is the ordered set of tracked entries, bound to its file path.
// It is loaded fresh at the start of each command invocation; mutations
// rewrite the file atomically.
type Manifest struct {
	path    string
	header  []string
	entries []Entry
}

// Load reads the manifest file. A missing file yields an empty manifest.
// Lines that cannot be parsed as workspace-relative paths fail with
// ErrCorrupt.
func Load(path string) (*Manifest, error) {
	m := &Manifest{path: path}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()

	seen := map[string]struct{}{}
	scanner := bufio.NewScanner(file)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if len(m.entries) == 0 {
				m.header = append(m.header, line)
			}
			continue
		}
		entry, err := parseLine(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorrupt, lineno, err)
		}
		key := norm.NFC.String(entry.Raw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		m.entries = append(m.entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return m, nil
}

func parseLine(raw string) (Entry, error) {
	isFolder := strings.HasSuffix(raw, "/")
	rel := strings.TrimSuffix(raw, "/")
	if rel == "" {
		return Entry{}, errors.New("empty path")
	}
	if strings.Contains(rel, "\\") {
		return Entry{}, errors.New("backslash separator")
	}
	if strings.HasPrefix(rel, "/") {
		return Entry{}, errors.New("absolute path")
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return Entry{}, errors.New("parent traversal")
		}
	}
	return Entry{Raw: raw, Rel: rel, IsFolder: isFolder}, nil
}

// Entries returns the tracked entries in file order.
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Files returns the set of directly tracked file paths, NFC-normalized.
func (m *Manifest) Files() map[string]struct{} {
	files := make(map[string]struct{})
	for _, e := range m.entries {
		if !e.IsFolder {
			files[norm.NFC.String(e.Rel)] = struct{}{}
		}
	}
	return files
}

// Folders returns the tracked folder prefixes in file order.
func (m *Manifest) Folders() []Entry {
	var folders []Entry
	for _, e := range m.entries {
		if e.IsFolder {
			folders = append(folders, e)
		}
	}
	return folders
}

// Covers reports whether rel is tracked, either directly or through a
// covering folder entry. Comparison is NFC-normalized.
func (m *Manifest) Covers(rel string) bool {
	return m.coveredDirectly(rel) || m.CoveredByFolder(rel)
}

func (m *Manifest) coveredDirectly(rel string) bool {
	key := norm.NFC.String(rel)
	for _, e := range m.entries {
		if !e.IsFolder && norm.NFC.String(e.Rel) == key {
			return true
		}
	}
	return false
}

// CoveredByFolder reports whether rel sits under a tracked folder entry.
// Folder entries implicitly cover everything beneath them.
func (m *Manifest) CoveredByFolder(rel string) bool {
	key := norm.NFC.String(rel)
	for _, e := range m.entries {
		if !e.IsFolder {
			continue
		}
		prefix := norm.NFC.String(e.Rel)
		if key == prefix || strings.HasPrefix(key, prefix+"/") {
			return true
		}
	}
	return false
}

// Add appends a new entry and rewrites the file. An equivalent entry, or a
// folder already covering the path, fails with ErrAlreadyTracked. A path the
// loader would reject is refused up front with ErrEscapesWorkspace, so Add
// can never write a line a later Load reports as corrupt.
func (m *Manifest) Add(rel string, isFolder bool) (Entry, error) {
	if _, err := parseLine(FormatLine(rel, isFolder)); err != nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrEscapesWorkspace, FormatLine(rel, isFolder))
	}
	key := norm.NFC.String(rel)
	for _, e := range m.entries {
		if norm.NFC.String(e.Rel) == key && e.IsFolder == isFolder {
			return e, fmt.Errorf("%w: %s", ErrAlreadyTracked, e.Raw)
		}
	}
	if !isFolder && m.CoveredByFolder(rel) {
		return Entry{}, fmt.Errorf("%w: covered by a released folder", ErrAlreadyTracked)
	}

	entry := Entry{Raw: FormatLine(rel, isFolder), Rel: rel, IsFolder: isFolder}
	m.entries = append(m.entries, entry)
	if err := m.save(); err != nil {
		m.entries = m.entries[:len(m.entries)-1]
		return Entry{}, err
	}
	return entry, nil
}

// Remove drops the entry matching rel and rewrites the file. Missing
// entries fail with ErrNotTracked.
func (m *Manifest) Remove(rel string, isFolder bool) (Entry, error) {
	key := norm.NFC.String(rel)
	for i, e := range m.entries {
		if norm.NFC.String(e.Rel) == key && e.IsFolder == isFolder {
			removed := e
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			if err := m.save(); err != nil {
				return Entry{}, err
			}
			return removed, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotTracked, FormatLine(rel, isFolder))
}

// save rewrites the manifest atomically: write a temp file in the same
// directory, then rename over the original so a crash never truncates it.
func (m *Manifest) save() error {
	var sb strings.Builder
	for _, line := range m.header {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	for _, e := range m.entries {
		sb.WriteString(e.Raw)
		sb.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("ensure manifest dir: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// Init creates the manifest with its comment header. It reports whether the
// file was created; an existing manifest is left untouched.
func Init(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("ensure manifest dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Header), 0o644); err != nil {
		return false, fmt.Errorf("write manifest: %w", err)
	}
	return true, nil
}
