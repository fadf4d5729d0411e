package editor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apps-seb/lotwarp/pkg/assets"
	"github.com/apps-seb/lotwarp/pkg/geo"
	"github.com/apps-seb/lotwarp/pkg/layer"
	"github.com/apps-seb/lotwarp/pkg/store"
)

const project = "site"

var errGone = errors.New("gone")

type fixtureImage struct {
	w, h int
	c    color.RGBA
}

func fixtureLoader(images map[string]fixtureImage) assets.Loader {
	return assets.LoaderFunc(func(ctx context.Context, url string) (image.Image, error) {
		f, ok := images[url]
		if !ok {
			return nil, errGone
		}
		img := image.NewRGBA(image.Rect(0, 0, f.w, f.h))
		draw.Draw(img, img.Bounds(), &image.Uniform{C: f.c}, image.Point{}, draw.Src)
		return img, nil
	})
}

type warnings []string

func (w *warnings) Warn(msg string) { *w = append(*w, msg) }

type fixture struct {
	s       *Session
	store   *store.MemoryStore
	warned  *warnings
	redraws int
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{store: store.NewMemoryStore(), warned: &warnings{}}
	images := map[string]fixtureImage{
		"master.png": {200, 100, color.RGBA{R: 255, A: 255}},
		"lot.png":    {40, 40, color.RGBA{G: 255, A: 255}},
		"other.png":  {10, 20, color.RGBA{B: 255, A: 255}},
	}
	base := []Option{
		WithLoader(fixtureLoader(images), 2),
		WithStore(f.store, project),
		WithNotifier(f.warned),
		WithRedraw(func() { f.redraws++ }),
	}
	f.s = New(append(base, opts...)...)
	t.Cleanup(f.s.Close)
	return f
}

func (f *fixture) await(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.s.Await(ctx))
}

func (f *fixture) stored(t *testing.T) *layer.List {
	t.Helper()
	blob, err := f.store.Load(context.Background(), project)
	require.NoError(t, err)
	l, err := layer.Unmarshal(blob)
	require.NoError(t, err)
	return l
}

// withMasterAndLot returns a session with a loaded 200x100 master and one
// loaded lot at index 1.
func withMasterAndLot(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := newFixture(t, opts...)
	ctx := context.Background()
	require.NoError(t, f.s.SetMasterImage(ctx, ImageRef{URL: "master.png", MediaID: "1"}))
	f.await(t)
	_, err := f.s.AddLotLayer(ctx, ImageRef{URL: "lot.png", MediaID: "2"})
	require.NoError(t, err)
	f.await(t)
	return f
}

func TestAddLotWithoutMaster(t *testing.T) {
	f := newFixture(t)

	i, err := f.s.AddLotLayer(context.Background(), ImageRef{URL: "lot.png"})
	assert.ErrorIs(t, err, ErrNoMaster)
	assert.Equal(t, -1, i)
	assert.Len(t, *f.warned, 1)
	assert.Zero(t, f.s.List().Len())

	_, err = f.store.Load(context.Background(), project)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMasterTakesImageSize(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.SetMasterImage(context.Background(), ImageRef{URL: "master.png", MediaID: "1"}))
	assert.Equal(t, 1, f.s.Pending())

	f.await(t)
	assert.Zero(t, f.s.Pending())
	m := f.s.List().Master()
	require.NotNil(t, m)
	assert.True(t, m.Loaded())
	assert.Equal(t, geo.Rect(200, 100), m.Dst)
	assert.Equal(t, 0, f.s.List().MasterIndex())
}

func TestReplaceMasterKeepsLots(t *testing.T) {
	f := withMasterAndLot(t)
	require.NoError(t, f.s.SetMasterImage(context.Background(), ImageRef{URL: "other.png", MediaID: "9"}))
	f.await(t)

	l := f.s.List()
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, "other.png", l.Master().URL)
	assert.Equal(t, geo.Rect(10, 20), l.Master().Dst)
	assert.Equal(t, "other.png", f.stored(t).Master().URL)
}

func TestAddLotUsesDefaultCorners(t *testing.T) {
	f := withMasterAndLot(t)

	l := f.s.List()
	require.Equal(t, 2, l.Len())
	lot := l.At(1)
	assert.Equal(t, layer.DefaultLotCorners(200, 100), lot.Dst)
	assert.Equal(t, geo.Rect(40, 40), lot.Src)
	assert.Equal(t, 1, f.s.Selected())

	stored := f.stored(t)
	require.Equal(t, 2, stored.Len())
	assert.Equal(t, lot.Dst, stored.At(1).Dst)
}

func TestAddLotWhileMasterLoading(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.s.SetMasterImage(ctx, ImageRef{URL: "master.png", MediaID: "1"}))

	// The master has no size until its image arrives.
	i, err := f.s.AddLotLayer(ctx, ImageRef{URL: "lot.png", MediaID: "2"})
	assert.ErrorIs(t, err, ErrMasterLoading)
	assert.Equal(t, -1, i)
	assert.Len(t, *f.warned, 1)
	assert.Equal(t, 1, f.s.List().Len())

	f.await(t)
	i, err = f.s.AddLotLayer(ctx, ImageRef{URL: "lot.png", MediaID: "2"})
	require.NoError(t, err)
	f.await(t)
	assert.Equal(t, [4]geo.Point{{X: 50, Y: 25}, {X: 150, Y: 25}, {X: 150, Y: 75}, {X: 50, Y: 75}},
		f.s.List().At(i).Dst)

	c, err := f.s.Render()
	require.NoError(t, err)
	defer c.Close()
	r, g, _, _ := c.Image().At(100, 50).RGBA()
	assert.Greater(t, g, r, "lot covers the middle")
}

func TestAddLotAfterMasterFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.s.SetMasterImage(ctx, ImageRef{URL: "missing.png"}))
	f.await(t)
	require.ErrorIs(t, f.s.List().Master().LoadErr, errGone)

	_, err := f.s.AddLotLayer(ctx, ImageRef{URL: "lot.png"})
	assert.ErrorIs(t, err, ErrMasterLoading)
	require.Len(t, *f.warned, 1)
	assert.True(t, strings.Contains((*f.warned)[0], "failed"), (*f.warned)[0])
}

func TestDragCorner(t *testing.T) {
	f := withMasterAndLot(t)
	ctx := context.Background()
	before := f.redraws

	// Corner 2 of the default lot sits at (150,75).
	require.True(t, f.s.PointerDown(geo.Pt(155, 80)))
	assert.Equal(t, Dragging, f.s.State())

	assert.True(t, f.s.PointerMove(geo.Pt(170, 90)))
	assert.Equal(t, geo.Pt(170, 90), f.s.List().At(1).Dst[2])

	// Dragging past the opposite corner would cross the quad.
	assert.False(t, f.s.PointerMove(geo.Pt(-10, 50)))
	assert.Equal(t, geo.Pt(170, 90), f.s.List().At(1).Dst[2])
	assert.Greater(t, f.redraws, before)

	require.NoError(t, f.s.PointerUp(ctx))
	assert.Equal(t, Idle, f.s.State())
	assert.Equal(t, geo.Pt(170, 90), f.stored(t).At(1).Dst[2])

	assert.False(t, f.s.PointerMove(geo.Pt(0, 0)), "moves after release are ignored")
}

func TestPointerDownMissesOutsideRadius(t *testing.T) {
	f := withMasterAndLot(t)

	assert.False(t, f.s.PointerDown(geo.Pt(150+DefaultHandleRadius+1, 75)))
	assert.Equal(t, Idle, f.s.State())
	// Outside every quad clears the selection.
	assert.Equal(t, -1, f.s.Selected())

	// Inside a quad selects it without dragging.
	assert.False(t, f.s.PointerDown(geo.Pt(100, 50)))
	assert.Equal(t, 1, f.s.Selected())
}

func TestPointerCancelRestoresCorner(t *testing.T) {
	f := withMasterAndLot(t)

	require.True(t, f.s.PointerDown(geo.Pt(50, 25)))
	require.True(t, f.s.PointerMove(geo.Pt(30, 10)))
	f.s.PointerCancel()

	assert.Equal(t, Idle, f.s.State())
	assert.Equal(t, geo.Pt(50, 25), f.s.List().At(1).Dst[0])
}

func TestDisplayScale(t *testing.T) {
	f := withMasterAndLot(t)
	// Displayed at half size: master (150,75) shows at (75,37.5).
	f.s.SetDisplayScale(0.5, 0.5)
	f.s.SetDisplayScale(0, -1)

	require.True(t, f.s.PointerDown(geo.Pt(75, 37.5)))
	require.True(t, f.s.PointerMove(geo.Pt(90, 45)))
	assert.Equal(t, geo.Pt(180, 90), f.s.List().At(1).Dst[2])
}

func TestSelectedLotIsGrabbedFirst(t *testing.T) {
	f := withMasterAndLot(t)
	ctx := context.Background()
	i, err := f.s.AddLotLayer(ctx, ImageRef{URL: "other.png", MediaID: "3"})
	require.NoError(t, err)
	require.Equal(t, 2, i)

	// Both lots share corner (150,75); the topmost wins unless the lower
	// one is selected.
	require.True(t, f.s.PointerDown(geo.Pt(150, 75)))
	assert.Equal(t, 2, f.s.Selected())
	require.NoError(t, f.s.PointerUp(ctx))

	require.NoError(t, f.s.Select(1))
	require.True(t, f.s.PointerDown(geo.Pt(150, 75)))
	assert.Equal(t, 1, f.s.Selected())
	require.NoError(t, f.s.PointerUp(ctx))

	assert.Error(t, f.s.Select(7))
}

func TestRemoveLayer(t *testing.T) {
	f := withMasterAndLot(t)

	require.NoError(t, f.s.RemoveLayer(context.Background(), 1))
	assert.Equal(t, -1, f.s.Selected())
	assert.Equal(t, 1, f.s.List().Len())
	assert.Equal(t, 1, f.stored(t).Len())

	assert.Error(t, f.s.RemoveLayer(context.Background(), 4))
}

func TestNudgeAndMoveCorner(t *testing.T) {
	f := withMasterAndLot(t)
	ctx := context.Background()

	require.NoError(t, f.s.NudgeCorner(ctx, 1, 0, geo.Pt(-5, 2)))
	assert.Equal(t, geo.Pt(45, 27), f.s.List().At(1).Dst[0])

	assert.ErrorIs(t, f.s.MoveCorner(ctx, 1, 0, geo.Pt(160, 50)), layer.ErrBowtie)
	assert.ErrorIs(t, f.s.NudgeCorner(ctx, 0, 0, geo.Pt(1, 1)), layer.ErrNotLot)
	assert.ErrorIs(t, f.s.NudgeCorner(ctx, 1, 9, geo.Pt(1, 1)), layer.ErrCorner)
	assert.Equal(t, geo.Pt(45, 27), f.stored(t).At(1).Dst[0])
}

func TestNonFiniteCornerIsRejected(t *testing.T) {
	f := withMasterAndLot(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.s.MoveCorner(ctx, 1, 0, geo.Pt(math.NaN(), 10)), layer.ErrNonFinite)
	assert.Equal(t, geo.Pt(50, 25), f.s.List().At(1).Dst[0])
	assert.ErrorIs(t, f.s.NudgeCorner(ctx, 1, 2, geo.Pt(math.Inf(1), 0)), layer.ErrNonFinite)

	// The project still saves after a refused move.
	require.NoError(t, f.s.NudgeCorner(ctx, 1, 2, geo.Pt(1, 1)))
	assert.Equal(t, geo.Pt(151, 76), f.stored(t).At(1).Dst[2])

	require.True(t, f.s.PointerDown(geo.Pt(151, 76)))
	assert.False(t, f.s.PointerMove(geo.Pt(math.NaN(), math.NaN())))
	require.NoError(t, f.s.PointerUp(ctx))
	assert.Equal(t, geo.Pt(151, 76), f.stored(t).At(1).Dst[2])
}

func TestLoadProject(t *testing.T) {
	f := withMasterAndLot(t)
	ctx := context.Background()

	// A second session over the same store, where the lot image is gone.
	s := New(
		WithLoader(fixtureLoader(map[string]fixtureImage{
			"master.png": {200, 100, color.RGBA{R: 255, A: 255}},
		}), 2),
		WithStore(f.store, project),
	)
	t.Cleanup(s.Close)

	require.NoError(t, s.Load(ctx))
	assert.Equal(t, 2, s.Pending())
	wait, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.Await(wait))

	l := s.List()
	require.Equal(t, 2, l.Len())
	assert.True(t, l.Master().Loaded())
	lot := l.At(1)
	assert.False(t, lot.Loaded())
	assert.ErrorIs(t, lot.LoadErr, errGone)
	assert.Equal(t, layer.DefaultLotCorners(200, 100), lot.Dst, "failed load keeps geometry")

	// The broken lot renders nothing, the rest still draws.
	c, err := s.Render()
	require.NoError(t, err)
	defer c.Close()
	r, g, _, _ := c.Image().At(100, 50).RGBA()
	assert.Greater(t, r, g)
}

func TestLoadMissingAndMalformed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.s.Load(ctx))
	assert.Zero(t, f.s.List().Len())

	require.NoError(t, f.store.Save(ctx, project, []byte(`{"not":"a list"}`)))
	require.NoError(t, f.s.Load(ctx))
	assert.Zero(t, f.s.List().Len())
}

func TestRender(t *testing.T) {
	f := withMasterAndLot(t)

	c, err := f.s.Render()
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 200, c.Width())
	assert.Equal(t, 100, c.Height())

	img := c.Image()
	r, g, _, _ := img.At(100, 50).RGBA()
	assert.Greater(t, g, r, "lot covers the middle")
	r, g, _, _ = img.At(10, 90).RGBA()
	assert.Greater(t, r, g, "master shows around the lot")

	empty := New()
	defer empty.Close()
	_, err = empty.Render()
	assert.ErrorIs(t, err, ErrNoMaster)
}

func TestRedrawIsEventDriven(t *testing.T) {
	f := withMasterAndLot(t)
	before := f.redraws

	_, _ = f.s.Snapshot()
	_, _ = f.s.Render()
	assert.False(t, f.s.PointerMove(geo.Pt(1, 1)))
	assert.Equal(t, before, f.redraws)

	require.True(t, f.s.PointerDown(geo.Pt(150, 75)))
	assert.Equal(t, before+1, f.redraws)
}
