package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"pixelart/parallel"
)

// DefaultPattern names output files after their index.
const DefaultPattern = "photo%d.txt"

// Pipeline converts the entries of a Source. The zero value is not usable;
// at least Dest and Convert must be set.
type Pipeline struct {
	// Dest is the output directory.
	Dest string
	// Pattern is a fmt pattern turning an index into a file name.
	Pattern string
	// Concurrency limits the conversions running at once. Values below 1
	// select GOMAXPROCS. The limit never exceeds the number of items.
	Concurrency int
	// ItemTimeout bounds a single conversion when positive.
	ItemTimeout time.Duration

	Convert ConvertFunc
	Journal Journal
	// Indexer is shared between runs when set, otherwise every run counts
	// from 1.
	Indexer *Indexer
	Logger  *slog.Logger

	// OnStart is called with the number of items before work begins.
	OnStart func(total int)
	// OnResult is called from worker goroutines as items finish.
	OnResult func(Result)

	inflight registry
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// DestPath returns the output file of index.
func (p *Pipeline) DestPath(index uint32) string {
	pattern := p.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	return filepath.Join(p.Dest, fmt.Sprintf(pattern, index))
}

// Enqueue lists src and assigns indices in enumeration order.
func (p *Pipeline) Enqueue(ctx context.Context, src Source, indexer *Indexer) ([]Item, error) {
	entries, err := src.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not enumerate source: %w", err)
	}

	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Entry: e, Index: indexer.Next()}
	}
	return items, nil
}

// Run converts every entry of src. The returned error is only set when src
// cannot be enumerated or the pipeline is misconfigured; item failures end
// up in the report.
func (p *Pipeline) Run(ctx context.Context, src Source) (*Report, error) {
	if p.Convert == nil {
		return nil, errors.New("pipeline has no converter")
	}

	indexer := p.Indexer
	if indexer == nil {
		indexer = &Indexer{}
	}

	items, err := p.Enqueue(ctx, src, indexer)
	if err != nil {
		return nil, err
	}

	if p.OnStart != nil {
		p.OnStart(len(items))
	}

	report := &Report{Results: make([]Result, 0, len(items))}
	if len(items) == 0 {
		return report, nil
	}

	workers := p.Concurrency
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	pool := parallel.Start(min(workers, len(items)))

	p.logger().Info("starting batch", "items", len(items), "workers", pool.Size(), "dest", p.Dest)

	results := make([]Result, len(items))
	for i := range items {
		item := items[i]
		err := pool.Do(ctx, func() {
			results[i] = p.runItem(ctx, item)
		})
		if err != nil {
			// The run was cancelled before this item got a slot.
			results[i] = p.finish(ctx, item, Result{
				Index:  item.Index,
				Name:   item.Name,
				Dest:   p.DestPath(item.Index),
				Status: Failed,
				Err:    &ItemError{Index: item.Index, Err: err},
			})
		}
	}
	pool.Wait()

	for _, res := range results {
		report.add(res)
	}

	p.logger().Info("stats", "converted", report.Converted, "skipped", report.Skipped,
		"failed", report.Failed, "total", len(items))
	return report, nil
}

func (p *Pipeline) runItem(ctx context.Context, item Item) (res Result) {
	dest := p.DestPath(item.Index)
	logger := p.logger().With("index", item.Index, "dest", dest)
	start := time.Now()

	res = Result{Index: item.Index, Name: item.Name, Dest: dest}
	defer func() {
		res.Duration = time.Since(start)
		res = p.finish(ctx, item, res)
		switch res.Status {
		case Skipped:
			logger.Info("skipping item", "reason", res.Err)
		case Failed:
			logger.Error("could not convert item", "error", res.Err)
		default:
			logger.Info("converted item", "source", item.Name, "took", res.Duration)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			res.Status, res.Err = Failed, &ItemError{Index: item.Index, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if !p.inflight.claim(item.Index) {
		res.Status, res.Err = Skipped, ErrIndexClaimed
		return res
	}
	defer p.inflight.release(item.Index)

	if !p.inflight.claim(dest) {
		res.Status, res.Err = Skipped, ErrDestinationClaimed
		return res
	}
	defer p.inflight.release(dest)

	if _, err := os.Stat(dest); err == nil {
		res.Status, res.Err = Skipped, ErrDestinationExists
		return res
	} else if !errors.Is(err, fs.ErrNotExist) {
		res.Status, res.Err = Failed, &ItemError{Index: item.Index, Err: fmt.Errorf("cannot stat destination: %w", err)}
		return res
	}

	if p.Journal != nil {
		seen, err := p.Journal.Seen(ctx, dest)
		if err != nil {
			logger.Warn("could not query journal", "error", err)
		} else if seen {
			res.Status, res.Err = Skipped, ErrAlreadyConverted
			return res
		}
	}

	if err := p.convert(ctx, item, dest); err != nil {
		res.Status, res.Err = Failed, &ItemError{Index: item.Index, Err: err}
		return res
	}

	res.Status = Converted
	return res
}

func (p *Pipeline) convert(ctx context.Context, item Item, dest string) error {
	if p.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.ItemTimeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := item.Load()
	if err != nil {
		return fmt.Errorf("could not load source %q: %w", item.Name, err)
	}

	return p.Convert(ctx, img, dest)
}

// finish runs the cleanup shared by every outcome.
func (p *Pipeline) finish(ctx context.Context, item Item, res Result) Result {
	if item.Release != nil {
		item.Release()
	}

	if p.Journal != nil && !errors.Is(res.Err, ErrAlreadyConverted) {
		if err := p.Journal.Record(ctx, res); err != nil {
			p.logger().Warn("could not record outcome", "index", res.Index, "error", err)
		}
	}

	if p.OnResult != nil {
		p.OnResult(res)
	}
	return res
}

// InFlight reports whether index is currently being converted.
func (p *Pipeline) InFlight(index uint32) bool {
	return p.inflight.holds(index)
}
