package repository

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRepo(t *testing.T, prefix string) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionRepository(client, prefix, nil), mr
}

func TestSessionRepositoryPutExistsTTL(t *testing.T) {
	repo, mr := newSessionRepo(t, "")
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "alice01", "tok", 120*time.Minute))
	assert.True(t, mr.Exists("alice01_tok"))
	val, err := mr.Get("alice01_tok")
	require.NoError(t, err)
	assert.Empty(t, val)

	ok, err := repo.Exists(ctx, "alice01", "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := repo.TTL(ctx, "alice01", "tok")
	require.NoError(t, err)
	assert.Equal(t, 120*time.Minute, ttl)

	mr.FastForward(121 * time.Minute)
	ok, err = repo.Exists(ctx, "alice01", "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionRepositoryTTLMissing(t *testing.T) {
	repo, mr := newSessionRepo(t, "")
	ctx := context.Background()

	_, err := repo.TTL(ctx, "alice01", "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, mr.Set("alice01_forever", ""))
	_, err = repo.TTL(ctx, "alice01", "forever")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepositoryPutOverwrites(t *testing.T) {
	repo, _ := newSessionRepo(t, "")
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "alice01", "tok", time.Minute))
	require.NoError(t, repo.Put(ctx, "alice01", "tok", 30*time.Minute))

	ttl, err := repo.TTL(ctx, "alice01", "tok")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, ttl)
}

func TestSessionRepositoryScanFollowsCursor(t *testing.T) {
	repo, mr := newSessionRepo(t, "")
	ctx := context.Background()

	want := make([]string, 0, 350)
	for i := 0; i < 350; i++ {
		token := fmt.Sprintf("tok%03d", i)
		require.NoError(t, repo.Put(ctx, "alice01", token, time.Hour))
		want = append(want, repo.Key("alice01", token))
	}
	require.NoError(t, mr.Set("alice012_other", ""))
	require.NoError(t, mr.Set("bob00001_tok", ""))

	keys, err := repo.Scan(ctx, "alice01")
	require.NoError(t, err)
	sort.Strings(keys)
	sort.Strings(want)
	assert.Equal(t, want, keys)
}

func TestSessionRepositoryScanEmpty(t *testing.T) {
	repo, _ := newSessionRepo(t, "")

	keys, err := repo.Scan(context.Background(), "nobody1")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSessionRepositoryDelete(t *testing.T) {
	repo, mr := newSessionRepo(t, "")
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "alice01", "a", time.Hour))
	require.NoError(t, repo.Put(ctx, "alice01", "b", time.Hour))
	require.NoError(t, repo.Put(ctx, "bob0001", "c", time.Hour))

	require.NoError(t, repo.Delete(ctx, repo.Key("alice01", "a"), repo.Key("alice01", "b"), repo.Key("alice01", "missing")))
	assert.False(t, mr.Exists("alice01_a"))
	assert.False(t, mr.Exists("alice01_b"))
	assert.True(t, mr.Exists("bob0001_c"))

	require.NoError(t, repo.Delete(ctx, repo.Key("alice01", "a")))
	require.NoError(t, repo.Delete(ctx))
}

func TestSessionRepositoryPrefix(t *testing.T) {
	repo, mr := newSessionRepo(t, "member:")
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "alice01", "tok", time.Hour))
	require.NoError(t, mr.Set("alice01_unprefixed", ""))
	assert.True(t, mr.Exists("member:alice01_tok"))

	keys, err := repo.Scan(ctx, "alice01")
	require.NoError(t, err)
	assert.Equal(t, []string{"member:alice01_tok"}, keys)
}
