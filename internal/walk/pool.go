package walk

import (
	"context"
	"iter"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Item pairs an entry with the value computed for it.
type Item[T any] struct {
	Entry
	Value T
}

// Map applies fn to every entry of seq using up to workers goroutines and
// returns the kept results sorted by RelPath. fn reports keep=false to drop
// an entry; it has no error path, so one bad file never cancels the others.
// Cancellation is checked between files: entries not yet started when ctx is
// done are skipped and ctx.Err() is returned with the partial results.
func Map[T any](ctx context.Context, seq iter.Seq[Entry], workers int, fn func(Entry) (T, bool)) ([]Item[T], error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu    sync.Mutex
		items []Item[T]
		g     errgroup.Group
	)
	g.SetLimit(workers)

	for entry := range seq {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			value, keep := fn(entry)
			if !keep {
				return nil
			}
			mu.Lock()
			items = append(items, Item[T]{Entry: entry, Value: value})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(items, func(i, j int) bool {
		return items[i].RelPath < items[j].RelPath
	})
	return items, ctx.Err()
}
