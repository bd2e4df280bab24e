package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlphaLabel(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{-3, ""},
		{1, "A"},
		{2, "B"},
		{26, "Z"},
		{27, "AA"},
		{28, "AB"},
		{52, "AZ"},
		{53, "BA"},
		{702, "ZZ"},
		{703, "AAA"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, AlphaLabel(tt.n))
		})
	}
}

func TestJoinLabel(t *testing.T) {
	assert.Equal(t, "B", JoinLabel("", "B"))
	assert.Equal(t, "B", JoinLabel("   ", "B"))
	assert.Equal(t, "2026C", JoinLabel(" 2026 ", "C"))
}
