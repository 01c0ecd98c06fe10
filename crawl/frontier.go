package crawl

import (
	"container/heap"
	"strings"
	"sync"

	"github.com/weftlabs/weft/bloom"
)

// Page link priorities. Higher pops first.
const (
	PrioritySeed       = 100
	PriorityPagination = 50
	PriorityDetail     = 10
)

// PageLink is one queued page in a scrape.
type PageLink struct {
	URL      string
	Priority int
	// Page is the 1-based page number within the pagination sequence,
	// zero for detail links.
	Page int
}

// Frontier is an in-memory page queue with priority ordering and Bloom
// filter deduplication. Safe for concurrent use.
type Frontier struct {
	mu    sync.Mutex
	seen  *bloom.Filter
	queue *linkHeap
}

// NewFrontier creates a frontier sized for n expected URLs with the
// given false positive rate for deduplication.
func NewFrontier(n uint, fpRate float64) *Frontier {
	h := &linkHeap{}
	heap.Init(h)
	return &Frontier{
		seen:  bloom.NewFilter(n, fpRate),
		queue: h,
	}
}

// Push queues a link. Returns false when the URL was already seen.
// Fragments are stripped first, so URLs differing only by fragment are
// duplicates.
func (f *Frontier) Push(link PageLink) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	link.URL = stripFragment(link.URL)
	if f.seen.Test(link.URL) {
		return false
	}
	f.seen.Add(link.URL)
	heap.Push(f.queue, link)
	return true
}

// Pop returns the next link by priority. The bool result is false when
// the frontier is empty.
func (f *Frontier) Pop() (PageLink, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queue.Len() == 0 {
		return PageLink{}, false
	}
	link, _ := heap.Pop(f.queue).(PageLink)
	return link, true
}

// Len returns the number of queued links.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len()
}

// Seen reports whether the URL has been queued or processed.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.Test(stripFragment(rawURL))
}

func stripFragment(url string) string {
	if idx := strings.Index(url, "#"); idx != -1 {
		return url[:idx]
	}
	return url
}

// linkHeap implements heap.Interface as a max-heap over link priority.
type linkHeap []PageLink

func (h linkHeap) Len() int           { return len(h) }
func (h linkHeap) Less(i, j int) bool { return h[i].Priority > h[j].Priority }
func (h linkHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *linkHeap) Push(x any) {
	link, _ := x.(PageLink)
	*h = append(*h, link)
}

func (h *linkHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
