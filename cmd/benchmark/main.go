package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gg"

	"github.com/apps-seb/lotwarp/pkg/geo"
	"github.com/apps-seb/lotwarp/pkg/warp"
)

type BenchmarkResult struct {
	Grid          int
	TotalRenders  int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	RendersPerSec float64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	Drawn         int64
	Skipped       int64
}

func main() {
	var (
		grids   = flag.String("grids", "2,4,8,10,16,32", "Comma separated grid sizes")
		n       = flag.Int("n", 50, "Renders per grid size")
		workers = flag.Int("w", runtime.NumCPU(), "Number of concurrent workers")
		width   = flag.Int("width", 800, "Canvas width")
		height  = flag.Int("height", 600, "Canvas height")
		texSize = flag.Int("tex", 256, "Source texture size")
		jitter  = flag.Float64("jitter", 0.15, "Random corner displacement as a fraction of the canvas")
	)
	flag.Parse()

	sizes, err := parseGrids(*grids)
	if err != nil {
		log.Fatalf("Invalid -grids: %v", err)
	}

	tex, err := checkerTexture(*texSize)
	if err != nil {
		log.Fatalf("Failed to build texture: %v", err)
	}
	quads := randomQuads(*n, float64(*width), float64(*height), *jitter)
	src := geo.Rect(float64(*texSize), float64(*texSize))

	log.Printf("Rendering %d quads per grid on %dx%d canvases with %d workers...\n", *n, *width, *height, *workers)

	fmt.Println("\n=== Warp Benchmark Results ===")
	fmt.Printf("%6s %10s %12s %12s %12s %10s %10s\n", "grid", "renders/s", "avg", "min", "max", "triangles", "skipped")
	for _, g := range sizes {
		r := benchmarkGrid(g, tex, src, quads, *workers, *width, *height)
		fmt.Printf("%6d %10.1f %12v %12v %12v %10d %10d\n",
			r.Grid, r.RendersPerSec, r.AvgDuration, r.MinDuration, r.MaxDuration, r.Drawn, r.Skipped)
	}
}

func benchmarkGrid(grid int, tex *gg.ImageBuf, src [4]geo.Point, quads [][4]geo.Point, workers, w, h int) BenchmarkResult {
	renderer := warp.NewRenderer(grid)

	var drawn, skipped atomic.Int64
	var minNs, maxNs atomic.Int64
	minNs.Store(math.MaxInt64)

	jobs := make(chan [4]geo.Point)
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			canvas := warp.NewCanvas(w, h)
			defer canvas.Close()
			for q := range jobs {
				t0 := time.Now()
				stats, err := renderer.DrawWarpedLayer(canvas, tex, src, q)
				d := time.Since(t0).Nanoseconds()
				if err != nil {
					log.Printf("Render error: %v", err)
					continue
				}
				drawn.Add(int64(stats.Drawn))
				skipped.Add(int64(stats.Skipped))
				for {
					cur := minNs.Load()
					if d >= cur || minNs.CompareAndSwap(cur, d) {
						break
					}
				}
				for {
					cur := maxNs.Load()
					if d <= cur || maxNs.CompareAndSwap(cur, d) {
						break
					}
				}
			}
		}()
	}
	for _, q := range quads {
		jobs <- q
	}
	close(jobs)
	wg.Wait()
	total := time.Since(start)

	result := BenchmarkResult{
		Grid:          grid,
		TotalRenders:  len(quads),
		TotalDuration: total,
		MinDuration:   time.Duration(minNs.Load()),
		MaxDuration:   time.Duration(maxNs.Load()),
		Drawn:         drawn.Load(),
		Skipped:       skipped.Load(),
	}
	if len(quads) > 0 {
		result.AvgDuration = total / time.Duration(len(quads))
		result.RendersPerSec = float64(len(quads)) / total.Seconds()
	}
	return result
}

func parseGrids(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		g, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if g < 1 {
			return nil, fmt.Errorf("grid %d must be at least 1", g)
		}
		out = append(out, g)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no grid sizes given")
	}
	return out, nil
}

func checkerTexture(size int) (*gg.ImageBuf, error) {
	buf, err := gg.NewImageBuf(size, size, gg.FormatRGBA8)
	if err != nil {
		return nil, err
	}
	const cell = 16
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			var v uint8 = 40
			if (x/cell+y/cell)%2 == 0 {
				v = 220
			}
			if err := buf.SetRGBA(x, y, v, v, v, 255); err != nil {
				return nil, err
			}
		}
	}
	return buf, nil
}

// randomQuads perturbs the corners of a centered rectangle, keeping only
// simple quads.
func randomQuads(n int, w, h, jitter float64) [][4]geo.Point {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	base := [4]geo.Point{{X: w * 0.2, Y: h * 0.2}, {X: w * 0.8, Y: h * 0.2}, {X: w * 0.8, Y: h * 0.8}, {X: w * 0.2, Y: h * 0.8}}
	quads := make([][4]geo.Point, 0, n)
	for len(quads) < n {
		var q [4]geo.Point
		for i, p := range base {
			q[i] = geo.Pt(p.X+(r.Float64()*2-1)*jitter*w, p.Y+(r.Float64()*2-1)*jitter*h)
		}
		if geo.IsSimpleQuad(q) {
			quads = append(quads, q)
		}
	}
	return quads
}
