package persistence

import (
	"errors"
	"fmt"
)

type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// Codici dal catalogo errori storico.
const (
	CodeIO    = "ERROR 05"
	CodeCodec = "ERROR 07"
)

var ErrNotFound = errors.New("snapshot not found")

// Error descrive un fallimento di persistenza: operazione, destinazione e causa.
type Error struct {
	Op     Op
	Target string
	Code   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] persistence %s %s: %v", e.Code, e.Op, e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage è il testo mostrabile all'operatore, senza dettagli interni.
func (e *Error) UserMessage() string {
	if e.Op == OpRead {
		return "could not load the saved network state"
	}
	return "could not save the network state"
}

func readErr(target, code string, err error) error {
	return &Error{Op: OpRead, Target: target, Code: code, Err: err}
}

func writeErr(target, code string, err error) error {
	return &Error{Op: OpWrite, Target: target, Code: code, Err: err}
}
