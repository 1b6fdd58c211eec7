// Package bloom provides approximate set membership for deduplicating the
// links collected from a page.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter keyed by URL.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected items
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// NewLinkFilter returns a filter sized for one page's links: a few times
// maxLinks entries at a one-in-a-million false positive rate, so a unique
// link is practically never dropped.
func NewLinkFilter(maxLinks int) *Filter {
	n := uint(maxLinks) * 4
	if n < 64 {
		n = 64
	}
	return NewFilter(n, 1e-6)
}

// Add adds a URL to the filter.
func (f *Filter) Add(url string) {
	f.f.AddString(url)
}

// Test returns true if the URL might be in the filter.
// False positives are possible; false negatives are not.
func (f *Filter) Test(url string) bool {
	return f.f.TestString(url)
}

// Seen adds url and reports whether it was possibly present before.
func (f *Filter) Seen(url string) bool {
	return f.f.TestAndAddString(url)
}

// EstimatedCount returns the approximate number of items in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
