// Package bloom provides probabilistic page and record deduplication.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter for deduplicating page URLs and record
// hashes during a scrape.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected items with the given
// false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add marks a key as seen.
func (f *Filter) Add(key string) {
	f.f.AddString(key)
}

// Test reports whether the key might have been seen. False positives
// are possible; false negatives are not.
func (f *Filter) Test(key string) bool {
	return f.f.TestString(key)
}

// EstimatedCount returns the approximate number of keys in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}

// Reset clears the filter for reuse across scrape runs.
func (f *Filter) Reset() {
	f.f.ClearAll()
}
