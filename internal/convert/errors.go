package convert

import (
	"fmt"
)

// Kind classifies why a conversion stopped.
type Kind string

const (
	// KindParse: the subtitle file is missing or malformed
	KindParse Kind = "parse"
	// KindAuthentication: the speech service rejected or lacked credentials
	KindAuthentication Kind = "authentication"
	// KindSynthesis: a cue could not be synthesized or decoded
	KindSynthesis Kind = "synthesis"
	// KindWrite: the output could not be written
	KindWrite Kind = "write"
	// KindCanceled: the run was interrupted
	KindCanceled Kind = "canceled"
)

// Error is a fatal conversion failure. No output file is left behind when a
// run returns one.
type Error struct {
	Kind Kind
	Cue  int // subtitle index, 0 when not tied to a cue
	Err  error
}

func (e *Error) Error() string {
	if e.Cue > 0 {
		return fmt.Sprintf("%s error at subtitle %d: %v", e.Kind, e.Cue, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, cue int, err error) *Error {
	return &Error{Kind: kind, Cue: cue, Err: err}
}
