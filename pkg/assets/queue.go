package assets

import (
	"context"

	"github.com/gogpu/gg"
)

// Sink receives decoded images keyed by URL and returns how many of its
// entries took the result.
type Sink interface {
	ApplyImage(url string, img *gg.ImageBuf, err error) int
}

// Queue tracks the loads a single owner has requested. It wraps a Fetcher
// with the pending count the owner needs to know when it has caught up.
//
// A Queue is not safe for concurrent use; only the Fetcher behind it runs
// on other goroutines. A Queue without a loader accepts requests and never
// delivers anything.
type Queue struct {
	fetcher *Fetcher
	ctx     context.Context
	cancel  context.CancelFunc
	pending int
}

// NewQueue returns a Queue loading through loader with at most limit loads
// in flight. loader may be nil.
func NewQueue(loader Loader, limit int) *Queue {
	q := &Queue{}
	if loader != nil {
		q.fetcher = NewFetcher(loader, limit)
	}
	q.ctx, q.cancel = context.WithCancel(context.Background())
	return q
}

// Request starts loading the non-empty urls.
func (q *Queue) Request(urls ...string) {
	if q.fetcher == nil {
		return
	}
	todo := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			todo = append(todo, u)
		}
	}
	q.pending += len(todo)
	q.fetcher.Request(q.ctx, todo...)
}

// Results delivers finished loads. It is nil without a loader.
func (q *Queue) Results() <-chan Result {
	if q.fetcher == nil {
		return nil
	}
	return q.fetcher.Results()
}

// Pending returns the number of requested loads not yet applied.
func (q *Queue) Pending() int { return q.pending }

// Apply settles res against sink. It returns the number of entries updated
// and the load error, which is ErrUnsupported for a result carrying
// neither an image nor an error.
func (q *Queue) Apply(sink Sink, res Result) (int, error) {
	if q.pending > 0 {
		q.pending--
	}
	var img *gg.ImageBuf
	if res.Err == nil && res.Image != nil {
		img = gg.ImageBufFromImage(res.Image)
	}
	err := res.Err
	if err == nil && img == nil {
		err = ErrUnsupported
	}
	return sink.ApplyImage(res.URL, img, err), err
}

// Await hands incoming results to apply until none are pending or ctx
// ends. apply is expected to call Apply.
func (q *Queue) Await(ctx context.Context, apply func(Result)) error {
	for q.pending > 0 {
		select {
		case res, ok := <-q.Results():
			if !ok {
				q.pending = 0
				return nil
			}
			apply(res)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close stops outstanding loads. Undelivered results are dropped.
func (q *Queue) Close() {
	q.cancel()
	if q.fetcher == nil {
		return
	}
	go func() {
		for range q.fetcher.Results() {
		}
	}()
	q.fetcher.Close()
}
