package assets

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkEntry struct {
	img *gg.ImageBuf
	err error
}

type mapSink map[string]sinkEntry

func (m mapSink) ApplyImage(url string, img *gg.ImageBuf, err error) int {
	m[url] = sinkEntry{img, err}
	return 1
}

func TestQueueAwaitAppliesAll(t *testing.T) {
	loader := LoaderFunc(func(ctx context.Context, u string) (image.Image, error) {
		switch u {
		case "bad":
			return nil, errors.New("nope")
		case "empty":
			return nil, nil
		}
		return image.NewRGBA(image.Rect(0, 0, 3, 2)), nil
	})
	q := NewQueue(loader, 2)
	defer q.Close()

	q.Request("a", "", "bad")
	q.Request("empty")
	assert.Equal(t, 3, q.Pending())

	sink := mapSink{}
	var applied []string
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Await(ctx, func(res Result) {
		applied = append(applied, res.URL)
		_, _ = q.Apply(sink, res)
	}))

	assert.Zero(t, q.Pending())
	assert.Len(t, applied, 3)
	require.NotNil(t, sink["a"].img)
	w, h := sink["a"].img.Bounds()
	assert.Equal(t, [2]int{3, 2}, [2]int{w, h})
	assert.EqualError(t, sink["bad"].err, "nope")
	assert.ErrorIs(t, sink["empty"].err, ErrUnsupported)
	assert.Nil(t, sink["empty"].img)
}

func TestQueueWithoutLoader(t *testing.T) {
	q := NewQueue(nil, 0)
	q.Request("a", "b")
	assert.Zero(t, q.Pending())
	assert.Nil(t, q.Results())
	assert.NoError(t, q.Await(context.Background(), func(Result) { t.Fatal("nothing to apply") }))
	q.Close()
}

func TestQueueAwaitHonorsContext(t *testing.T) {
	block := make(chan struct{})
	loader := LoaderFunc(func(ctx context.Context, u string) (image.Image, error) {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil, ctx.Err()
	})
	q := NewQueue(loader, 1)
	defer q.Close()
	defer close(block)

	q.Request("slow")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Await(ctx, func(Result) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, q.Pending())
}
