package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		page, size    int
		offset, limit int
	}{
		{name: "first page", page: 1, size: 10, offset: 0, limit: 10},
		{name: "third page", page: 3, size: 5, offset: 10, limit: 5},
		{name: "page below one", page: 0, size: 5, offset: 0, limit: 5},
		{name: "zero size", page: 2, size: 0, offset: DefaultPageSize, limit: DefaultPageSize},
		{name: "size too large", page: 1, size: MaxPageSize + 1, offset: 0, limit: DefaultPageSize},
		{name: "huge page", page: 922337203685477582, size: 10, offset: (math.MaxInt/10 - 1) * 10, limit: 10},
		{name: "max int page", page: math.MaxInt, size: MaxPageSize, offset: (math.MaxInt/MaxPageSize - 1) * MaxPageSize, limit: MaxPageSize},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			offset, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.limit, limit)
		})
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
}

func TestWindow(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Window(items, 0, 2))
	assert.Equal(t, []int{5}, Window(items, 4, 2))
	assert.Empty(t, Window(items, 5, 2))
	assert.Empty(t, Window([]int(nil), 0, 10))
	assert.Empty(t, Window(items, -10, 2))
	assert.Empty(t, Window(items, 0, 0))
	assert.Equal(t, []int{3, 4, 5}, Window(items, 2, math.MaxInt))

	offset, limit := Calculate(922337203685477582, 10)
	assert.GreaterOrEqual(t, offset, 0)
	assert.Empty(t, Window(items, offset, limit))
}
