package frontier

import (
	"container/list"
	"errors"
	"sort"
	"sync"
)

// ErrEmptyFrontier is returned by Next when nothing is waiting.
// It marks normal exhaustion, not a failure.
var ErrEmptyFrontier = errors.New("frontier is empty")

// Class is the internal/external tag a URL gets when it is dequeued.
type Class int

const (
	Internal Class = iota
	External
)

func (c Class) String() string {
	if c == Internal {
		return "internal"
	}
	return "external"
}

// Frontier is the per-run crawl queue. A URL lives in at most one of
// visited and notVisited; it is tagged internal or external exactly when it
// moves from notVisited to visited. All mutations happen under one mutex.
type Frontier struct {
	aliases Aliases

	mu         sync.Mutex
	notVisited *list.List          // FIFO of string
	queued     map[string]struct{} // membership index for notVisited
	visited    map[string]struct{}
	internal   map[string]struct{}
	external   map[string]struct{}
}

// New returns a frontier seeded with target.
func New(target string, aliases Aliases) *Frontier {
	f := &Frontier{
		aliases:    aliases,
		notVisited: list.New(),
		queued:     make(map[string]struct{}),
		visited:    make(map[string]struct{}),
		internal:   make(map[string]struct{}),
		external:   make(map[string]struct{}),
	}
	f.Enqueue(target)
	return f
}

// Aliases returns the internal host pair the frontier classifies against.
func (f *Frontier) Aliases() Aliases {
	return f.aliases
}

// Enqueue appends url unless it is empty, already visited or already queued.
// The check and the insert are one critical section.
func (f *Frontier) Enqueue(url string) bool {
	if url == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[url]; ok {
		return false
	}
	if _, ok := f.queued[url]; ok {
		return false
	}
	f.queued[url] = struct{}{}
	f.notVisited.PushBack(url)
	return true
}

// Next pops the head of the queue, marks it visited and tags it.
func (f *Frontier) Next() (string, Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	head := f.notVisited.Front()
	if head == nil {
		return "", External, ErrEmptyFrontier
	}
	url := f.notVisited.Remove(head).(string)
	delete(f.queued, url)
	f.visited[url] = struct{}{}

	if f.aliases.IsInternal(url) {
		f.internal[url] = struct{}{}
		return url, Internal, nil
	}
	f.external[url] = struct{}{}
	return url, External, nil
}

// MarkSeen records url as visited without crawling it, for resources that
// are logged but never fetched (script sources, extracted references).
// It returns false when url is already known, queued or visited.
func (f *Frontier) MarkSeen(url string) bool {
	if url == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[url]; ok {
		return false
	}
	if _, ok := f.queued[url]; ok {
		return false
	}
	f.visited[url] = struct{}{}
	return true
}

// IsVisited reports whether url has been visited or marked seen.
func (f *Frontier) IsVisited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[url]
	return ok
}

// Pending returns a copy of the queue in crawl order.
func (f *Frontier) Pending() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, f.notVisited.Len())
	for e := f.notVisited.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(string))
	}
	return out
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notVisited.Len()
}

// Visited returns a sorted copy of the visited set.
func (f *Frontier) Visited() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedKeys(f.visited)
}

// Internal returns a sorted copy of the URLs tagged internal.
func (f *Frontier) Internal() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedKeys(f.internal)
}

// External returns a sorted copy of the URLs tagged external.
func (f *Frontier) External() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedKeys(f.external)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
