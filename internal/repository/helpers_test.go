package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		name         string
		page, size   int
		wantPage     int
		wantSize     int
	}{
		{"defaults", 0, 0, 1, 20},
		{"negative page", -3, 10, 1, 10},
		{"valid passthrough", 2, 50, 2, 50},
		{"upper bound kept", 1, 100, 1, 100},
		{"oversized clamps to max", 1, 150, 1, 100},
		{"oversized keeps page", 4, 1000, 4, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, size := normalizePage(tc.page, tc.size)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantSize, size)
		})
	}
}
