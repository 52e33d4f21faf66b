package analysis

// Queue is the JS discovery queue: FIFO candidates plus the set of files
// already handled. It is drained by a single goroutine and is not locked.
type Queue struct {
	items   []string
	queued  map[string]struct{}
	visited map[string]struct{}
}

func NewQueue(seeds ...string) *Queue {
	q := &Queue{
		queued:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
	for _, s := range seeds {
		q.Push(s)
	}
	return q
}

// Push appends u unless it is empty, queued or visited.
func (q *Queue) Push(u string) bool {
	if u == "" {
		return false
	}
	if _, ok := q.visited[u]; ok {
		return false
	}
	if _, ok := q.queued[u]; ok {
		return false
	}
	q.queued[u] = struct{}{}
	q.items = append(q.items, u)
	return true
}

// Pop removes the head. The candidate is not marked visited; see Visit.
func (q *Queue) Pop() (string, bool) {
	if len(q.items) == 0 {
		return "", false
	}
	u := q.items[0]
	q.items = q.items[1:]
	delete(q.queued, u)
	return u, true
}

// Visit marks u handled and reports whether it was new.
func (q *Queue) Visit(u string) bool {
	if _, ok := q.visited[u]; ok {
		return false
	}
	q.visited[u] = struct{}{}
	return true
}

func (q *Queue) Visited(u string) bool {
	_, ok := q.visited[u]
	return ok
}

func (q *Queue) Len() int {
	return len(q.items)
}
