package crawler

import (
	"container/heap"
	"strings"
)

// frontierEntry is a discovered URL waiting to be visited.
type frontierEntry struct {
	url   string
	depth int
	score float64
	seq   int // Discovery order, used for FIFO and for breaking score ties
}

// frontier orders the URLs still to be visited by a deep crawl. BFS pops in
// discovery order; best-first pops the highest keyword-relevance score,
// breaking ties by discovery order.
type frontier struct {
	strategy Strategy
	scorer   *keywordScorer
	entries  entryHeap
	nextSeq  int
}

func newFrontier(strategy Strategy, keywords []string) *frontier {
	f := &frontier{strategy: strategy}
	if strategy == StrategyBestFirst {
		f.scorer = newKeywordScorer(keywords)
	}
	return f
}

func (f *frontier) push(url string, depth int) {
	entry := frontierEntry{url: url, depth: depth, seq: f.nextSeq}
	f.nextSeq++
	if f.scorer != nil {
		entry.score = f.scorer.score(url)
	}
	heap.Push(&f.entries, entry)
}

func (f *frontier) pop() (frontierEntry, bool) {
	if f.entries.Len() == 0 {
		return frontierEntry{}, false
	}
	return heap.Pop(&f.entries).(frontierEntry), true
}

func (f *frontier) len() int {
	return f.entries.Len()
}

// entryHeap orders entries so that heap.Pop returns the next URL to visit.
// With a zero score everywhere (BFS) it degrades to a FIFO queue.
type entryHeap []frontierEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score > h[j].score
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(frontierEntry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

// keywordScorer rates a URL by the fraction of keywords appearing in it,
// mirroring URL-text relevance scoring: pages whose address mentions more
// of the requested keywords are visited first.
type keywordScorer struct {
	keywords []string
}

func newKeywordScorer(keywords []string) *keywordScorer {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}
	return &keywordScorer{keywords: lowered}
}

func (s *keywordScorer) score(url string) float64 {
	if len(s.keywords) == 0 {
		return 0
	}

	lowered := strings.ToLower(url)
	matched := 0
	for _, k := range s.keywords {
		if strings.Contains(lowered, k) {
			matched++
		}
	}
	return float64(matched) / float64(len(s.keywords))
}
