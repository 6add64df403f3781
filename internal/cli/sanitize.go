package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxLineSize bounds a shell line; the longest form values are addresses
	// and certificate DNS name lists.
	DefaultMaxLineSize = 4096
	// EnvMaxLineSize overrides DefaultMaxLineSize.
	EnvMaxLineSize = "STEPPER_MAX_INPUT_SIZE"
)

var (
	ErrLineTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeLine rejects oversized or malformed lines and strips control characters
// so that pasted escape sequences never reach the form or the logs.
func SanitizeLine(line string) (string, error) {
	if limit := maxLineSize(); len(line) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrLineTooLarge, len(line), limit)
	}
	if !utf8.ValidString(line) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(line, unsafeRune) < 0 {
		return line, nil
	}
	return strings.Map(func(r rune) rune {
		if unsafeRune(r) {
			return -1
		}
		return r
	}, line), nil
}

func unsafeRune(r rune) bool {
	return unicode.IsControl(r) && r != '\t'
}

func maxLineSize() int {
	if val := os.Getenv(EnvMaxLineSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxLineSize
}
