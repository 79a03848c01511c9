package workspace

import (
	"path"
	"strings"

	"classpub/internal/config"
)

// Ignore filters workspace scans. Built-in names are always excluded;
// config patterns extend them. Patterns ending with "/" match directories.
type Ignore struct {
	filePatterns []string
	dirPatterns  []string
}

// NewIgnore combines the built-in exclusions with additional patterns.
func NewIgnore(extra []string) *Ignore {
	ig := &Ignore{
		filePatterns: append([]string{}, config.DefaultIgnoredFiles...),
		dirPatterns:  append([]string{}, config.DefaultIgnoredDirs...),
	}
	for _, pat := range extra {
		p := strings.TrimSpace(pat)
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "/") {
			ig.dirPatterns = append(ig.dirPatterns, strings.TrimSuffix(p, "/"))
		} else {
			ig.filePatterns = append(ig.filePatterns, p)
		}
	}
	return ig
}

// File reports whether a file should be excluded. Patterns containing a
// slash are tested against the full relative path, others against the name.
func (ig *Ignore) File(name, relPosix string) bool {
	return matchAny(ig.filePatterns, name, relPosix)
}

// Dir reports whether a directory should be excluded from the walk.
func (ig *Ignore) Dir(name, relPosix string) bool {
	return matchAny(ig.dirPatterns, name, relPosix)
}

func matchAny(patterns []string, name, relPosix string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
		if relPosix != "" && strings.Contains(p, "/") {
			if ok, err := path.Match(p, relPosix); err == nil && ok {
				return true
			}
		}
	}
	return false
}
