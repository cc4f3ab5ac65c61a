package mq

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(errors.New("db down")))
	assert.False(t, Retryable(ErrNonRetryable))
	assert.False(t, Retryable(fmt.Errorf("unmarshal payload: %w", ErrNonRetryable)))
}
