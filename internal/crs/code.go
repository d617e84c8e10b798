package crs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCRS is returned when text names no usable coordinate reference
// system.
var ErrInvalidCRS = errors.New("invalid coordinate reference system")

// InvalidError carries the rejected input and, when one was extracted, the
// code PROJ could not resolve.
type InvalidError struct {
	Input string
	Code  int // 0 when no code could be extracted
}

func (e *InvalidError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("invalid coordinate reference system: EPSG:%d is not recognised", e.Code)
	}
	return fmt.Sprintf("invalid coordinate reference system: %q has no EPSG code", e.Input)
}

func (e *InvalidError) Unwrap() error {
	return ErrInvalidCRS
}

// ParseCode extracts an EPSG code from user text. It accepts a bare number
// ("4326"), an authority prefix ("EPSG:4326") or a suggestion label
// ("WGS 84 (4326)"), where the digits of the last whitespace-separated token
// are used.
//
// Every digit of that token is kept and joined, wherever it sits, so
// "ab12cd34" yields 1234. Labels put the code alone in parentheses, so this
// only matters for hand-typed text.
func ParseCode(text string) (int, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, &InvalidError{Input: text}
	}
	last := fields[len(fields)-1]
	if i := strings.LastIndexByte(last, ':'); i >= 0 {
		last = last[i+1:]
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, last)
	if digits == "" {
		return 0, &InvalidError{Input: text}
	}

	code, err := strconv.Atoi(digits)
	if err != nil || code <= 0 {
		return 0, &InvalidError{Input: text}
	}
	return code, nil
}
