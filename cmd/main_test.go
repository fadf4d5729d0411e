package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apps-seb/lotwarp/pkg/geo"
	"github.com/apps-seb/lotwarp/pkg/layer"
	"github.com/apps-seb/lotwarp/pkg/store"
)

func writeImage(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestCLIWorkflow(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "master.png"), 120, 80, color.RGBA{R: 255, A: 255})
	writeImage(t, filepath.Join(dir, "lot.png"), 30, 30, color.RGBA{G: 255, A: 255})

	storeDir := filepath.Join(dir, "store")
	cfgPath := filepath.Join(dir, "lotwarp.yaml")
	base := []string{"--store-dir", storeDir, "--project", "site"}

	require.NoError(t, run(t, append([]string{"config", "init", cfgPath}, base...)...))
	require.FileExists(t, cfgPath)

	withRoot := func(args ...string) []string {
		return append(append(args, base...), "--config", cfgPath)
	}
	// Asset paths resolve against the working directory by default.
	t.Chdir(dir)

	assert.Error(t, run(t, withRoot("lot", "lot.png")...), "lot before master")
	require.NoError(t, run(t, withRoot("master", "master.png", "--media-id", "11")...))
	require.NoError(t, run(t, withRoot("lot", "lot.png", "--media-id", "12")...))
	require.NoError(t, run(t, withRoot("drag", "1", "2", "100", "70")...))
	assert.Error(t, run(t, withRoot("drag", "1", "2", "-50", "40")...), "bowtie refused")

	fs, err := store.NewFileStore(storeDir)
	require.NoError(t, err)
	blob, err := fs.Load(context.Background(), "site")
	require.NoError(t, err)
	list, err := layer.Unmarshal(blob)
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())
	assert.Equal(t, geo.Rect(120, 80), list.Master().Dst)
	assert.Equal(t, geo.Pt(100, 70), list.At(1).Dst[2])
	assert.Equal(t, geo.Rect(30, 30), list.At(1).Src)

	out := filepath.Join(dir, "out.png")
	require.NoError(t, run(t, withRoot("render", "-o", out, "--highlight", "1")...))
	f, err := os.Open(out)
	require.NoError(t, err)
	img, err := png.Decode(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 80), img.Bounds())

	half := filepath.Join(dir, "half.png")
	require.NoError(t, run(t, withRoot("render", "-o", half, "--scale", "0.5", "--highlight", "-1")...))
	f, err = os.Open(half)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Width)
	assert.Equal(t, 40, cfg.Height)

	require.NoError(t, run(t, withRoot("remove", "1")...))
	blob, err = fs.Load(context.Background(), "site")
	require.NoError(t, err)
	list, err = layer.Unmarshal(blob)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Len())
}

func TestDescribe(t *testing.T) {
	list, rep, err := layer.Decode([]byte(`[
		{"type":"master","url":"m.png","media_id":"1","dstPts":[{"x":0,"y":0},{"x":10,"y":0},{"x":10,"y":10},{"x":0,"y":10}]},
		{"type":"lot","url":"a.png","media_id":"2","dstPts":[{"x":0,"y":0},{"x":5,"y":0},{"x":0,"y":5},{"x":5,"y":5}]},
		{"type":"lot"}
	]`))
	require.NoError(t, err)

	out := describe("site", list, rep, nil)
	assert.Contains(t, out, "Project site")
	assert.Contains(t, out, "1 dropped, 1 re-ordered")
	assert.Contains(t, out, "[1] lot")
	assert.Contains(t, out, "(0,0) (5,0) (5,5) (0,5)")
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("1.5", "-2")
	require.NoError(t, err)
	assert.Equal(t, geo.Pt(1.5, -2), p)

	_, err = parsePoint("NaN", "0")
	assert.Error(t, err)
	_, err = parsePoint("x", "0")
	assert.Error(t, err)
}
