/*
Package batch converts a set of pictures into one output file each, with a
bounded number of conversions running at once.

Every entry of a Source is given an index before the first conversion
starts. Indices start at 1, follow enumeration order and name the output
file. An item whose output file already exists, or whose index or output is
already being worked on, is skipped. A failing or panicking item is logged
and abandoned without affecting the others; a run finishes once every item
has been converted, skipped or has failed.
*/
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"
)

var (
	ErrDestinationExists  = errors.New("destination already exists")
	ErrIndexClaimed       = errors.New("index already in flight")
	ErrDestinationClaimed = errors.New("destination already in flight")
	ErrAlreadyConverted   = errors.New("already converted by an earlier run")
)

// Entry is one picture produced by a Source.
type Entry struct {
	Name string
	Load func() (image.Image, error)
	// Release, if set, frees whatever Load holds on to. It is called once
	// the item reached its outcome.
	Release func()
}

// Source enumerates pictures. All entries are listed before any conversion
// starts.
type Source interface {
	Entries(ctx context.Context) ([]Entry, error)
}

// Item is an entry with its assigned index.
type Item struct {
	Entry
	Index uint32
}

// ConvertFunc converts one picture and stores the result at dest.
type ConvertFunc func(ctx context.Context, img image.Image, dest string) error

// Journal remembers outcomes across runs.
type Journal interface {
	Seen(ctx context.Context, dest string) (bool, error)
	Record(ctx context.Context, res Result) error
}

// Status is the outcome of an item.
type Status int

const (
	Converted Status = iota + 1
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Converted:
		return "converted"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ItemError wraps the failure of a single item.
type ItemError struct {
	Index uint32
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one item. Err explains skipped and failed items.
type Result struct {
	Index    uint32
	Name     string
	Dest     string
	Status   Status
	Err      error
	Duration time.Duration
}

// Report collects the results of a run ordered by index.
type Report struct {
	Results   []Result
	Converted int
	Skipped   int
	Failed    int
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case Converted:
		r.Converted++
	case Skipped:
		r.Skipped++
	case Failed:
		r.Failed++
	}
}

// Indexer hands out indices 1, 2, 3, ... to concurrent callers.
type Indexer struct {
	mu   sync.Mutex
	last uint32
}

// Next returns the next unused index.
func (ix *Indexer) Next() uint32 {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.last++
	return ix.last
}

// registry tracks the indices and destinations of running items.
type registry struct {
	m sync.Map
}

func (r *registry) claim(key any) bool {
	_, loaded := r.m.LoadOrStore(key, struct{}{})
	return !loaded
}

func (r *registry) release(key any) {
	r.m.Delete(key)
}

func (r *registry) holds(key any) bool {
	_, ok := r.m.Load(key)
	return ok
}
