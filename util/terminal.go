package util

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// ErrNotTerminal is returned when a prompt needs a terminal on stdin.
var ErrNotTerminal = errors.New("stdin is not a terminal")

// PromptSecret prints prompt on stderr and reads a line from the
// terminal without echo.
func PromptSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("reading %q: %w", prompt, ErrNotTerminal)
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(b), nil
}

// MakeRaw puts f into raw mode when it is a terminal and returns a
// function restoring the previous state.  For anything else the
// returned function does nothing.
func MakeRaw(f *os.File) (restore func(), err error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	st, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, fmt.Errorf("raw mode: %w", err)
	}
	return func() { term.Restore(fd, st) }, nil //nolint:errcheck
}
