package model

import "fmt"

type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Validate checks the page against the number of items actually returned.
func (p Pagination) Validate(returned int) error {
	if p.Offset < 0 || p.Offset > p.Total {
		return fmt.Errorf("%w: offset %d outside [0, %d]", ErrInvalidPagination, p.Offset, p.Total)
	}
	if returned < 0 || p.Offset+returned > p.Total {
		return fmt.Errorf("%w: offset %d + %d items exceeds total %d", ErrInvalidPagination, p.Offset, returned, p.Total)
	}
	return nil
}

func (p Pagination) HasNext() bool {
	return p.Limit > 0 && p.Offset+p.Limit < p.Total
}

func (p Pagination) HasPrev() bool {
	return p.Offset > 0
}

// NextOffset returns the offset of the following page, or the current offset
// when already on the last page.
func (p Pagination) NextOffset() int {
	if !p.HasNext() {
		return ClampOffset(p.Offset)
	}
	return p.Offset + p.Limit
}

func (p Pagination) PrevOffset() int {
	return ClampOffset(p.Offset - p.Limit)
}

func ClampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
