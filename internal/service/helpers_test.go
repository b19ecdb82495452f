package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationFor(t *testing.T) {
	cases := []struct {
		name        string
		page, size  int
		wantPage    int
		wantSize    int
	}{
		{"defaults", 0, 0, 1, 20},
		{"valid passthrough", 3, 25, 3, 25},
		{"upper bound kept", 1, 100, 1, 100},
		{"oversized clamps to max", 1, 150, 1, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := paginationFor(tc.page, tc.size, 12)
			assert.Equal(t, tc.wantPage, p.Page)
			assert.Equal(t, tc.wantSize, p.PageSize)
			assert.Equal(t, 12, p.TotalCount)
		})
	}
}
