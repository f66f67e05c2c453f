package kcdoc

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrInvalidUTF8 reports input that is not UTF-8 text.
	ErrInvalidUTF8 = errors.New("invalid utf-8 input")
	// ErrBinaryInput reports input that looks like a binary file.
	ErrBinaryInput = errors.New("binary input detected")
)

// Inputs of at least binarySampleRunes runes are treated as binary once
// control characters make up controlPercent of them.
const (
	binarySampleRunes = 64
	controlPercent    = 2
)

// ValidateInput rejects documents that are not UTF-8 text: invalid
// sequences, NUL bytes, or a high share of control characters. Errors wrap
// ErrInvalidUTF8 or ErrBinaryInput and name the byte offset where known.
func ValidateInput(src []byte) error {
	var runes, control int
	for off := 0; off < len(src); {
		r, size := utf8.DecodeRune(src[off:])
		switch {
		case r == utf8.RuneError && size == 1:
			return fmt.Errorf("%w at byte %d", ErrInvalidUTF8, off)
		case r == 0:
			return fmt.Errorf("%w: NUL at byte %d", ErrBinaryInput, off)
		case isControlRune(r):
			control++
		}
		runes++
		off += size
	}
	if runes >= binarySampleRunes && control*100 >= runes*controlPercent {
		return fmt.Errorf("%w: %d of %d characters are control characters", ErrBinaryInput, control, runes)
	}
	return nil
}

// isControlRune reports C0 controls and DEL, except the whitespace kcdoc
// line splitting understands.
func isControlRune(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r':
		return false
	}
	return r < 0x20 || r == 0x7F
}
