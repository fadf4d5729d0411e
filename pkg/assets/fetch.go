package assets

import (
	"context"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the loads a Fetcher runs at once.
const DefaultConcurrency = 4

// Result is one completed load. Err is set on failure and Image is nil.
type Result struct {
	URL   string
	Image image.Image
	Err   error
}

// Fetcher runs loads in the background and delivers their results on a
// channel. Request never blocks the caller.
type Fetcher struct {
	loader Loader
	limit  int
	out    chan Result
	wg     sync.WaitGroup
}

// NewFetcher returns a Fetcher running at most limit loads at once.
func NewFetcher(loader Loader, limit int) *Fetcher {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Fetcher{
		loader: loader,
		limit:  limit,
		out:    make(chan Result, limit),
	}
}

// Results returns the channel completions are delivered on. It is closed
// by Close.
func (f *Fetcher) Results() <-chan Result {
	return f.out
}

// Request starts loading urls. A canceled ctx drops undelivered results.
func (f *Fetcher) Request(ctx context.Context, urls ...string) {
	if len(urls) == 0 {
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		var g errgroup.Group
		g.SetLimit(f.limit)
		for _, u := range urls {
			g.Go(func() error {
				img, err := f.loader.Load(ctx, u)
				select {
				case f.out <- Result{URL: u, Image: img, Err: err}:
				case <-ctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Close waits for outstanding requests and closes the results channel.
// Results must be drained concurrently or Close may block.
func (f *Fetcher) Close() {
	f.wg.Wait()
	close(f.out)
}

// LoadAll loads urls with bounded concurrency and returns the results in
// input order.
func LoadAll(ctx context.Context, loader Loader, urls []string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	results := make([]Result, len(urls))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, u := range urls {
		g.Go(func() error {
			img, err := loader.Load(ctx, u)
			results[i] = Result{URL: u, Image: img, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
