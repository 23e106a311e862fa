package assets

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureResolvesOnce(t *testing.T) {
	f := NewFuture[int]()
	assert.False(t, f.Ready())
	assert.True(t, f.Resolve(1, nil))
	assert.False(t, f.Resolve(2, errors.New("late")), "only the first result counts")
	require.True(t, f.Ready())
	v, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFutureDone(t *testing.T) {
	f := NewFuture[string]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Resolve("ok", nil)
	}()
	select {
	case <-f.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("future never resolved")
	}
	v, _ := f.Result()
	assert.Equal(t, "ok", v)

	failed := Resolved(0, errors.New("boom"))
	_, err := failed.Result()
	assert.EqualError(t, err, "boom")
}
