package frontier

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFrontier(t *testing.T, target string) *Frontier {
	t.Helper()
	aliases, err := NewAliases(target)
	require.NoError(t, err)
	return New(target, aliases)
}

func TestNewAliases(t *testing.T) {
	a, err := NewAliases("https://example.com/path")
	require.NoError(t, err)
	assert.Equal(t, Aliases{"example.com", "www.example.com"}, a)

	a, err = NewAliases("http://www.example.com")
	require.NoError(t, err)
	assert.Equal(t, Aliases{"www.example.com", "example.com"}, a)

	_, err = NewAliases("not a url")
	assert.Error(t, err)
}

func TestAliasesIsInternal(t *testing.T) {
	a, err := NewAliases("https://example.com")
	require.NoError(t, err)

	assert.True(t, a.IsInternal("https://example.com/a"))
	assert.True(t, a.IsInternal("http://www.example.com/b"))
	assert.False(t, a.IsInternal("https://api.example.com/"), "subdomains are external")
	assert.False(t, a.IsInternal("https://example.com:8443/"), "host match is exact")
	assert.False(t, a.IsInternal("https://other.org/"))
}

func TestAliasesIgnoreHostCase(t *testing.T) {
	a, err := NewAliases("https://Example.COM/")
	require.NoError(t, err)
	assert.Equal(t, Aliases{"example.com", "www.example.com"}, a)

	assert.True(t, a.IsInternal("https://example.com/a"))
	assert.True(t, a.IsInternal("https://WWW.Example.com/b"))
}

func TestEnqueueIsIdempotent(t *testing.T) {
	f := newTestFrontier(t, "https://example.com/")

	assert.True(t, f.Enqueue("https://example.com/a"))
	assert.False(t, f.Enqueue("https://example.com/a"))
	assert.False(t, f.Enqueue(""))
	assert.Equal(t, []string{"https://example.com/", "https://example.com/a"}, f.Pending())
}

func TestNextClassifiesAndMovesToVisited(t *testing.T) {
	f := newTestFrontier(t, "https://example.com/")
	f.Enqueue("https://other.org/x")

	url, class, err := f.Next()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/", url)
	assert.Equal(t, Internal, class)

	url, class, err = f.Next()
	require.NoError(t, err)
	assert.Equal(t, "https://other.org/x", url)
	assert.Equal(t, External, class)

	_, _, err = f.Next()
	assert.True(t, errors.Is(err, ErrEmptyFrontier))

	assert.False(t, f.Enqueue("https://example.com/"), "visited URLs are never re-queued")
	assert.Equal(t, []string{"https://example.com/"}, f.Internal())
	assert.Equal(t, []string{"https://other.org/x"}, f.External())
}

func TestMarkSeen(t *testing.T) {
	f := newTestFrontier(t, "https://example.com/")

	assert.False(t, f.MarkSeen("https://example.com/"), "queued URL cannot be marked seen")
	assert.True(t, f.MarkSeen("https://example.com/app.js"))
	assert.False(t, f.MarkSeen("https://example.com/app.js"))
	assert.False(t, f.Enqueue("https://example.com/app.js"))
	assert.Empty(t, f.Internal(), "marking seen does not tag")
}

func TestConcurrentEnqueueKeepsExclusivity(t *testing.T) {
	f := newTestFrontier(t, "https://example.com/")

	const workers = 16
	const urls = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < urls; i++ {
				f.Enqueue(fmt.Sprintf("https://example.com/p%d", i))
				if i%7 == w%7 {
					f.Next()
				}
			}
		}(w)
	}
	wg.Wait()

	visited := make(map[string]bool)
	for _, u := range f.Visited() {
		visited[u] = true
	}
	pending := f.Pending()
	seen := make(map[string]bool)
	for _, u := range pending {
		assert.False(t, visited[u], "%s is both visited and pending", u)
		assert.False(t, seen[u], "%s queued twice", u)
		seen[u] = true
	}
	assert.Equal(t, urls+1, len(visited)+len(pending))
}
