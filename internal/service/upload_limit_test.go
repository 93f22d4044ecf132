package service

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCappedReader(t *testing.T) {
	data, err := io.ReadAll(newCappedReader(strings.NewReader("abcd"), 4))
	assert.NoError(t, err)
	assert.Equal(t, "abcd", string(data))

	_, err = io.ReadAll(newCappedReader(strings.NewReader("abcde"), 4))
	assert.True(t, errors.Is(err, errFileTooLarge))
}
