package token

import (
	"context"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(func() time.Time { return now })

	_, err := store.Current(ctx)
	assert.Equal(t, err, ErrNoSession)

	sess, err := store.Issue(ctx, "")
	assert.NilError(t, err)
	assert.Assert(t, sess.Token != "")
	assert.Equal(t, sess.LastUsed, now)

	current, err := store.Current(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, current, sess)

	later := now.Add(5 * time.Minute)
	assert.Equal(t, store.Touch(ctx, "other", later), ErrNoSession)
	assert.NilError(t, store.Touch(ctx, sess.Token, later))
	current, err = store.Current(ctx)
	assert.NilError(t, err)
	assert.Equal(t, current.LastUsed, later)

	assert.NilError(t, store.Revoke(ctx))
	_, err = store.Current(ctx)
	assert.Equal(t, err, ErrNoSession)
	assert.Equal(t, store.Touch(ctx, sess.Token, later), ErrNoSession)
}

func TestMemoryStoreIssueReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Now)

	first, err := store.Issue(ctx, "first")
	assert.NilError(t, err)
	assert.Equal(t, first.Token, "first")

	_, err = store.Issue(ctx, "second")
	assert.NilError(t, err)

	current, err := store.Current(ctx)
	assert.NilError(t, err)
	assert.Equal(t, current.Token, "second")
}
