package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetReturnsVersion(t *testing.T) {
	got := Get()
	assert.Equal(t, Version, got)
}

func TestVersionNotEmptyAndPrefixed(t *testing.T) {
	s := Get()
	assert.NotEmpty(t, s)
	// Version strings in this repo are prefixed with 'v'
	if s != "" {
		assert.Equal(t, byte('v'), s[0])
	}
}
