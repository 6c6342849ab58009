package util

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based page request with its size already clamped.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps number to at least 1 and resets sizes outside
// 1..MaxPageSize to DefaultPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return Page{Number: number, Size: size}
}

// ParsePage reads raw query values. Blank values take the defaults; values
// that are not integers are an error.
func ParsePage(rawNumber, rawSize string) (Page, error) {
	number, err := queryInt("page", rawNumber, 1)
	if err != nil {
		return Page{}, err
	}
	size, err := queryInt("size", rawSize, DefaultPageSize)
	if err != nil {
		return Page{}, err
	}
	return NewPage(number, size), nil
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func queryInt(name, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}
