package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rolodex/internal/contact"
)

func TestFuture_Value(t *testing.T) {
	f := Async(context.Background(), func(context.Context) (int, error) { return 42, nil })

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	<-f.Done()
	v, err = f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v, "await is repeatable")
}

func TestFuture_Error(t *testing.T) {
	boom := errors.New("boom")
	f := Async(context.Background(), func(context.Context) (string, error) { return "", boom })

	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestFuture_AwaitGivesUpOnDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	f := Async(context.Background(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	require.Error(t, err)
	assert.True(t, contact.IsKind(err, contact.Timeout))
}
