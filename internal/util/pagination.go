package util

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Calculate turns a 1-based page and a size into an offset and limit.
// Out-of-range sizes fall back to DefaultPageSize; pages past the last
// representable offset are clamped so the offset never overflows.
func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	if maxPage := math.MaxInt / size; page > maxPage {
		page = maxPage
	}
	offset = (page - 1) * size
	return offset, size
}

// Window returns the [offset, offset+limit) slice of items, clamped to its bounds.
func Window[T any](items []T, offset, limit int) []T {
	if offset < 0 || limit <= 0 || offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}
