// Package fingerprint computes content digests and modification times used
// to classify sameness versus staleness. Every call re-reads the disk; the
// workspace may change between invocations, so results are never cached.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ErrRead marks files that could not be read (permissions, mid-transfer).
var ErrRead = errors.New("read error")

const defaultChunkSize = 1 << 20

// Service hashes file contents in fixed-size chunks.
type Service struct {
	chunkSize int
}

// New returns a Service reading in chunks of the given size. Sizes below one
// fall back to the 1 MiB default.
func New(chunkSize int) *Service {
	if chunkSize < 1 {
		chunkSize = defaultChunkSize
	}
	return &Service{chunkSize: chunkSize}
}

// Hash returns the hex SHA-256 digest of the file contents. Bytes are
// compared as-is; no line-ending normalization is applied.
func (s *Service) Hash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}
	defer file.Close()

	h := sha256.New()
	buf := make([]byte, s.chunkSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("%w: %s: %v", ErrRead, path, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Mtime returns the modification time with whatever resolution the
// filesystem provides. The stat error stays in the chain so callers can
// distinguish a missing file from an unreadable one.
func (s *Service) Mtime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	return info.ModTime(), nil
}

// Equal reports whether two files have identical contents. Differing sizes
// short-circuit without hashing.
func (s *Service) Equal(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrRead, a, err)
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrRead, b, err)
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}
	hashA, err := s.Hash(a)
	if err != nil {
		return false, err
	}
	hashB, err := s.Hash(b)
	if err != nil {
		return false, err
	}
	return hashA == hashB, nil
}

// Pair captures the comparison state of one relative path across the
// pending and preview trees. Computed fresh per status query.
type Pair struct {
	ExistsSource  bool
	ExistsStaging bool
	SourceHash    string
	StagingHash   string
	SourceMtime   time.Time
	StagingMtime  time.Time
}

// Compare builds the Pair for a source/staging location pair.
func (s *Service) Compare(source, staging string) (Pair, error) {
	var pair Pair

	if t, err := s.Mtime(source); err == nil {
		pair.ExistsSource = true
		pair.SourceMtime = t
	} else if !errors.Is(err, os.ErrNotExist) {
		return pair, err
	}
	if t, err := s.Mtime(staging); err == nil {
		pair.ExistsStaging = true
		pair.StagingMtime = t
	} else if !errors.Is(err, os.ErrNotExist) {
		return pair, err
	}

	var err error
	if pair.ExistsSource {
		if pair.SourceHash, err = s.Hash(source); err != nil {
			return pair, err
		}
	}
	if pair.ExistsStaging {
		if pair.StagingHash, err = s.Hash(staging); err != nil {
			return pair, err
		}
	}
	return pair, nil
}
