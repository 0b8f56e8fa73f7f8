/*
Package approx maps arbitrary colors to the closest color of a tile catalog.

The color wheel is split into 24 hue buckets of 15 degrees, the first one
wrapping around 0 (352.5 to 7.5 degrees). Every catalog color is placed in
the bucket whose synthetic, fully saturated samples it is closest to. A query
first picks a bucket the same way, then searches only the catalog colors of
that bucket. The bucket choice is made against the samples, not against the
catalog colors, so the answer is not always the globally nearest color.

An Index holds the buckets and never changes after NewIndex. Approximaters
add a bounded memo on top of a shared Index and are not safe for concurrent
use; create one per goroutine.
*/
package approx

import (
	"fmt"
	"math"
	"slices"

	"pixelart/catalog"
	"pixelart/hsl"
)

const (
	// DefaultMaxMemo is the memo bound used when none is given.
	DefaultMaxMemo = 1000

	numBuckets       = 24
	bucketWidth      = 15.0
	samplesPerBucket = 16

	// skipDistance is larger than any distance between two 8-bit colors.
	skipDistance float32 = 720
)

// ConfigurationError reports a catalog or setting the engine cannot work
// with.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid palette configuration: " + e.Reason
}

var hueSamples = buildHueSamples()

func buildHueSamples() [numBuckets][]catalog.RGB {
	var samples [numBuckets][]catalog.RGB
	add := func(i int, deg float64) {
		r, g, b := hsl.Pure(deg).RGB8()
		samples[i] = append(samples[i], catalog.RGB{R: r, G: g, B: b})
	}

	for deg := 352.5; deg < 360; deg++ {
		add(0, deg)
	}
	for deg := 0.5; deg <= 7.5; deg++ {
		add(0, deg)
	}
	for i := 1; i < numBuckets; i++ {
		lo := 7.5 + bucketWidth*float64(i-1)
		for deg := lo; deg <= lo+bucketWidth; deg++ {
			add(i, deg)
		}
	}

	// The last bucket ends where the first begins.
	last := samples[numBuckets-1]
	samples[numBuckets-1] = last[:len(last)-1]

	return samples
}

func distance(a, b catalog.RGB) float32 {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return float32(math.Sqrt(float64(dr*dr + dg*dg + db*db)))
}

// Index is the immutable bucket layout of one catalog.
type Index struct {
	cat     catalog.Catalog
	buckets [numBuckets][]catalog.RGB
	skip    [numBuckets]bool
	records map[catalog.RGB]int
}

// NewIndex sorts the catalog colors into hue buckets.
func NewIndex(cat catalog.Catalog) (*Index, error) {
	if len(cat) == 0 {
		return nil, &ConfigurationError{Reason: "empty tile catalog"}
	}

	idx := &Index{
		cat:     cat,
		records: make(map[catalog.RGB]int, len(cat)),
	}

	var none [numBuckets]bool
	for i, rec := range cat {
		b := selectBucket(rec.Color, &none)
		idx.buckets[b] = append(idx.buckets[b], rec.Color)
		if _, ok := idx.records[rec.Color]; !ok {
			idx.records[rec.Color] = i
		}
	}

	populated := 0
	for i := range idx.buckets {
		slices.SortStableFunc(idx.buckets[i], func(a, b catalog.RGB) int {
			ha, hb := hsl.Hue(a.R, a.G, a.B), hsl.Hue(b.R, b.G, b.B)
			switch {
			case ha < hb:
				return -1
			case ha > hb:
				return 1
			}
			return 0
		})
		idx.skip[i] = len(idx.buckets[i]) == 0
		if !idx.skip[i] {
			populated++
		}
	}
	if populated == 0 {
		return nil, &ConfigurationError{Reason: "no populated hue bucket"}
	}

	return idx, nil
}

// selectBucket scans every hue sample of every bucket and returns the bucket
// of the closest one. Skipped buckets count as far away for each of their
// samples, which keeps the cost of a scan independent of the catalog.
func selectBucket(c catalog.RGB, skip *[numBuckets]bool) int {
	best, bestAt, pos := float32(math.MaxFloat32), 0, 0
	for i := range numBuckets {
		if skip[i] {
			if skipDistance < best {
				best, bestAt = skipDistance, pos
			}
			pos += samplesPerBucket
			continue
		}

		for _, s := range hueSamples[i] {
			if d := distance(c, s); d < best {
				best, bestAt = d, pos
			}
			pos++
		}
	}
	return bestAt / samplesPerBucket
}

// Bucket returns the hue bucket a color is searched in.
func (idx *Index) Bucket(c catalog.RGB) int {
	return selectBucket(c, &idx.skip)
}

// Members returns the colors of bucket i, sorted by hue.
func (idx *Index) Members(i int) []catalog.RGB {
	return slices.Clone(idx.buckets[i])
}

// Closest returns the best catalog color for c without any caching.
func (idx *Index) Closest(c catalog.RGB) catalog.RGB {
	members := idx.buckets[idx.Bucket(c)]

	best, bestDist := members[0], distance(c, members[0])
	for _, m := range members[1:] {
		if d := distance(c, m); d < bestDist {
			best, bestDist = m, d
		}
	}
	return best
}

// TileRecord returns the first catalog record drawn with color c.
func (idx *Index) TileRecord(c catalog.RGB) (catalog.TileRecord, bool) {
	i, ok := idx.records[c]
	if !ok {
		return catalog.TileRecord{}, false
	}
	return idx.cat[i], true
}

// Approximater creates a memoizing view of the index. maxMemo of 0 selects
// DefaultMaxMemo.
func (idx *Index) Approximater(maxMemo int) (*Approximater, error) {
	if maxMemo == 0 {
		maxMemo = DefaultMaxMemo
	}
	if maxMemo < 2 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("memo size %d below 2", maxMemo)}
	}

	return &Approximater{
		index:   idx,
		maxMemo: maxMemo,
		order:   make([]catalog.RGB, 0, maxMemo),
		memo:    make(map[catalog.RGB]catalog.RGB, maxMemo),
	}, nil
}

// New builds an index for cat and returns an Approximater over it.
func New(cat catalog.Catalog, maxMemo int) (*Approximater, error) {
	idx, err := NewIndex(cat)
	if err != nil {
		return nil, err
	}
	return idx.Approximater(maxMemo)
}

// Approximater answers closest color queries with a memo of recent
// answers.
type Approximater struct {
	index   *Index
	maxMemo int

	// order is the memo insertion order, oldest first.
	order []catalog.RGB
	memo  map[catalog.RGB]catalog.RGB
}

// Closest returns the catalog color c is reduced to.
func (a *Approximater) Closest(c catalog.RGB) catalog.RGB {
	if out, ok := a.memo[c]; ok {
		return out
	}

	out := a.index.Closest(c)
	a.memo[c] = out
	a.order = append(a.order, c)

	// Drop the older half in one go once the memo is full.
	if len(a.order) >= a.maxMemo {
		half := a.maxMemo / 2
		for _, old := range a.order[:half] {
			delete(a.memo, old)
		}
		n := copy(a.order, a.order[half:])
		a.order = a.order[:n]
	}

	return out
}

// TileRecord returns the first catalog record drawn with color c.
func (a *Approximater) TileRecord(c catalog.RGB) (catalog.TileRecord, bool) {
	return a.index.TileRecord(c)
}

// MemoLen returns the number of memoized inputs.
func (a *Approximater) MemoLen() int {
	return len(a.order)
}

// Memoized reports whether c is currently memoized.
func (a *Approximater) Memoized(c catalog.RGB) bool {
	_, ok := a.memo[c]
	return ok
}

// Reset empties the memo.
func (a *Approximater) Reset() {
	clear(a.memo)
	a.order = a.order[:0]
}
