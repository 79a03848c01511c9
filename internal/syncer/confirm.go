package syncer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrAborted reports that the user ended an interactive prompt without
// answering, usually via EOF or interrupt.
var ErrAborted = errors.New("prompt aborted")

// Confirmer answers yes/no prompts before destructive operations.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

type autoApprove struct{}

func (autoApprove) Confirm(string) (bool, error) { return true, nil }

// AutoApprove answers yes to every prompt. Used with --yes and in
// non-interactive sessions where prompting would hang.
func AutoApprove() Confirmer { return autoApprove{} }

type autoDecline struct{}

func (autoDecline) Confirm(string) (bool, error) { return false, nil }

// AutoDecline answers no to every prompt. The safe default when stdin is
// not a terminal and --yes was not given.
func AutoDecline() Confirmer { return autoDecline{} }

type readerConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewReaderConfirmer prompts on out and reads one line from in. Only
// "y", "Y", and "yes" count as approval. EOF before any answer aborts.
func NewReaderConfirmer(in io.Reader, out io.Writer) Confirmer {
	return &readerConfirmer{in: bufio.NewReader(in), out: out}
}

func (r *readerConfirmer) Confirm(prompt string) (bool, error) {
	fmt.Fprint(r.out, prompt)
	line, err := r.in.ReadString('\n')
	if err != nil && line == "" {
		return false, ErrAborted
	}
	switch strings.TrimSpace(line) {
	case "y", "Y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
