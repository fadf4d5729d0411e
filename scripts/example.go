package main

import (
	"fmt"
	"log"

	"github.com/gogpu/gg"

	"github.com/apps-seb/lotwarp/pkg/geo"
	"github.com/apps-seb/lotwarp/pkg/homography"
	"github.com/apps-seb/lotwarp/pkg/layer"
	"github.com/apps-seb/lotwarp/pkg/viewer"
	"github.com/apps-seb/lotwarp/pkg/warp"
)

func main() {
	// A 64x64 lot photo placed on a 400x300 aerial view
	src := geo.Rect(64, 64)
	dst := [4]geo.Point{
		geo.Pt(120, 80), geo.Pt(260, 95), geo.Pt(250, 210), geo.Pt(110, 190),
	}

	// Example 1: Solve the perspective transform
	fmt.Println("=== Homography ===")
	h, err := homography.Compute(src, dst)
	if err != nil {
		log.Fatal(err)
	}
	for i, p := range src {
		q := h.Apply(p)
		fmt.Printf("  corner %d: (%.0f, %.0f) -> (%.2f, %.2f)\n", i, p.X, p.Y, q.X, q.Y)
	}
	mid := h.Apply(geo.Pt(32, 32))
	fmt.Printf("  centre of the photo lands at (%.2f, %.2f)\n", mid.X, mid.Y)

	// Example 2: Warp a texture onto the canvas
	fmt.Println("\n=== Warp ===")
	tex, err := gg.NewImageBuf(64, 64, gg.FormatRGBA8)
	if err != nil {
		log.Fatal(err)
	}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if (x/8+y/8)%2 == 0 {
				_ = tex.SetRGBA(x, y, 230, 80, 60, 255)
			} else {
				_ = tex.SetRGBA(x, y, 250, 240, 220, 255)
			}
		}
	}
	canvas := warp.NewCanvas(400, 300)
	defer canvas.Close()
	canvas.Clear(gg.RGBA{R: 0.15, G: 0.3, B: 0.2, A: 1})
	stats, err := warp.NewRenderer(12).DrawWarpedLayer(canvas, tex, src, dst)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  drew %d triangles, skipped %d\n", stats.Drawn, stats.Skipped)

	// Example 3: Build and serialize a layer list
	fmt.Println("\n=== Layers ===")
	lot, err := layer.NewLot("lots/a1.png", "a1", src, dst)
	if err != nil {
		log.Fatal(err)
	}
	list := layer.NewList(layer.NewMaster("aerial.png", "m1", 400, 300), lot)
	blob, err := layer.Marshal(list)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  %s\n", blob)

	// A corner dragged across the opposite edge is refused
	if err := lot.MoveCorner(1, geo.Pt(250, 240)); err != nil {
		fmt.Printf("  bowtie move rejected: %v\n", err)
	}

	// Example 4: Hit-test the saved list
	fmt.Println("\n=== Hit test ===")
	v := viewer.New(blob, viewer.WithOnSelect(func(e viewer.Event) {
		fmt.Printf("  selected layer %d (%s)\n", e.Index, e.MediaID)
	}))
	defer v.Close()
	for _, p := range []geo.Point{geo.Pt(180, 140), geo.Pt(20, 20)} {
		fmt.Printf("  (%.0f, %.0f) -> layer %d\n", p.X, p.Y, v.HitTest(p))
	}
	v.Click(geo.Pt(180, 140))

	if err := canvas.SavePNG("example.png"); err != nil {
		log.Fatal(err)
	}
	fmt.Println("\nCanvas saved to example.png")
}
