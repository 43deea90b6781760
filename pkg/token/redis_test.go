package token

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gotest.tools/v3/assert"
)

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	ctx := context.Background()
	client, terminate, err := startRedis(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer terminate()

	now := time.UnixMilli(1714564800000)
	store := NewRedisStore(client, "test:session", func() time.Time { return now })

	_, err = store.Current(ctx)
	assert.Equal(t, err, ErrNoSession)
	assert.Equal(t, store.Touch(ctx, "missing", now), ErrNoSession)

	sess, err := store.Issue(ctx, "")
	assert.NilError(t, err)
	assert.Assert(t, sess.Token != "")

	current, err := store.Current(ctx)
	assert.NilError(t, err)
	assert.Equal(t, current.Token, sess.Token)
	assert.Assert(t, current.LastUsed.Equal(now))

	later := now.Add(time.Minute)
	assert.Equal(t, store.Touch(ctx, "other", later), ErrNoSession)
	assert.NilError(t, store.Touch(ctx, sess.Token, later))
	current, err = store.Current(ctx)
	assert.NilError(t, err)
	assert.Assert(t, current.LastUsed.Equal(later))

	assert.NilError(t, store.Revoke(ctx))
	_, err = store.Current(ctx)
	assert.Equal(t, err, ErrNoSession)
}

func startRedis(ctx context.Context) (client *redis.Client, terminate func(), err error) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:6.2.6-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("* Ready to accept connections"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return
	}
	terminate = func() {
		_ = container.Terminate(ctx)
	}
	defer func() {
		if err != nil {
			terminate()
		}
	}()
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return
	}
	host, err := container.Host(ctx)
	if err != nil {
		return
	}
	uri := fmt.Sprintf("redis://%s:%s", host, port.Port())

	options, err := redis.ParseURL(uri)
	if err != nil {
		return
	}
	client = redis.NewClient(options)
	return
}
