package workspace

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Resolution classifies the outcome of resolving a user-provided token.
type Resolution int

const (
	ResolvedFile Resolution = iota
	ResolvedFolder
	NotFound
	Ambiguous
)

// Candidate is one possible match during basename search.
type Candidate struct {
	Rel      string
	IsFolder bool
}

// Resolved is the result of mapping a token onto the pending tree.
type Resolved struct {
	Kind       Resolution
	Rel        string
	Candidates []Candidate
}

// Resolve maps a user token to a relative path under the pending workspace.
// Accepted forms: absolute paths inside pending/, paths with a "pending/"
// prefix, plain relative paths, and bare basenames (searched across the
// tree). A trailing slash expresses a folder preference.
func (l Layout) Resolve(token string, ig *Ignore) (Resolved, error) {
	tok := NormalizeToken(token)
	if tok == "" {
		return Resolved{Kind: NotFound}, nil
	}

	if path.IsAbs(tok) {
		rel, err := l.RelFromPending(tok)
		if err != nil {
			return Resolved{}, fmt.Errorf("absolute path must be inside pending/: %w", err)
		}
		return l.resolveExact(rel, false)
	}

	tok = strings.TrimPrefix(tok, "pending/")

	preferFolder := strings.HasSuffix(tok, "/")
	tok = path.Clean(strings.TrimSuffix(tok, "/"))
	if tok == "." || tok == ".." || strings.HasPrefix(tok, "../") {
		return Resolved{}, fmt.Errorf("%w: %s", ErrEscapesWorkspace, token)
	}

	if res, err := l.resolveExact(tok, preferFolder); err != nil || res.Kind != NotFound {
		return res, err
	}
	return l.searchBasename(tok, ig)
}

func (l Layout) resolveExact(rel string, preferFolder bool) (Resolved, error) {
	info, err := os.Stat(l.PendingPath(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return Resolved{Kind: NotFound}, nil
		}
		return Resolved{}, fmt.Errorf("inspect %s: %w", rel, err)
	}
	if info.IsDir() {
		return Resolved{Kind: ResolvedFolder, Rel: rel}, nil
	}
	if preferFolder {
		// Asked for a folder by trailing slash but found a file; let the
		// basename search surface both spellings.
		return Resolved{Kind: NotFound}, nil
	}
	return Resolved{Kind: ResolvedFile, Rel: rel}, nil
}

func (l Layout) searchBasename(tok string, ig *Ignore) (Resolved, error) {
	base := norm.NFC.String(path.Base(tok))
	files, dirs, err := l.ScanPending(ig)
	if err != nil {
		return Resolved{}, err
	}

	var cands []Candidate
	for _, f := range files {
		if norm.NFC.String(path.Base(f)) == base {
			cands = append(cands, Candidate{Rel: f})
		}
	}
	for _, d := range dirs {
		if norm.NFC.String(path.Base(d)) == base {
			cands = append(cands, Candidate{Rel: d, IsFolder: true})
		}
	}

	switch len(cands) {
	case 0:
		return Resolved{Kind: NotFound}, nil
	case 1:
		kind := ResolvedFile
		if cands[0].IsFolder {
			kind = ResolvedFolder
		}
		return Resolved{Kind: kind, Rel: cands[0].Rel}, nil
	default:
		sort.Slice(cands, func(i, j int) bool { return cands[i].Rel < cands[j].Rel })
		return Resolved{Kind: Ambiguous, Candidates: cands}, nil
	}
}
