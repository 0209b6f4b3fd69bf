package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	err := withContext(context.Background(), func() error { return nil })
	assert.NoError(t, err)

	sentinel := errors.New("driver failed")
	err = withContext(context.Background(), func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestWithContextReleasesOnDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	defer close(release)

	err := withContext(ctx, func() error { <-release; return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithContextReleasesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	release := make(chan struct{})
	defer close(release)

	err := withContext(ctx, func() error { <-release; return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
