package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationValidate(t *testing.T) {
	tests := []struct {
		name     string
		page     Pagination
		returned int
		wantErr  bool
	}{
		{"first page", Pagination{Total: 25, Limit: 10, Offset: 0}, 10, false},
		{"last partial page", Pagination{Total: 25, Limit: 10, Offset: 20}, 5, false},
		{"empty result", Pagination{Total: 0, Limit: 10, Offset: 0}, 0, false},
		{"negative offset", Pagination{Total: 25, Limit: 10, Offset: -1}, 0, true},
		{"offset past total", Pagination{Total: 25, Limit: 10, Offset: 30}, 0, true},
		{"too many items", Pagination{Total: 25, Limit: 10, Offset: 20}, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.page.Validate(tt.returned)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPagination)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPaginationOffsets(t *testing.T) {
	page := Pagination{Total: 25, Limit: 10, Offset: 10}
	assert.Equal(t, 20, page.NextOffset())
	assert.Equal(t, 0, page.PrevOffset())

	last := Pagination{Total: 25, Limit: 10, Offset: 20}
	assert.False(t, last.HasNext())
	assert.Equal(t, 20, last.NextOffset())

	first := Pagination{Total: 25, Limit: 10, Offset: 0}
	assert.False(t, first.HasPrev())
	assert.Equal(t, 0, first.PrevOffset())

	assert.Equal(t, 0, ClampOffset(-5))
}
