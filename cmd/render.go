package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"github.com/apps-seb/lotwarp/pkg/viewer"
	"github.com/apps-seb/lotwarp/pkg/warp"
)

var (
	outFile   string
	highlight int
	scale     float64
	grid      int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the project to a PNG file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openViewer(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := s.RenderHighlight(highlight)
		if err != nil {
			return err
		}
		defer c.Close()

		if scale == 1 {
			if err := c.SavePNG(outFile); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
		} else if err := writeScaled(c, outFile, scale); err != nil {
			return err
		}
		fmt.Printf("Rendered %d layers to %s\n", s.List().Len(), outFile)
		return nil
	},
}

var hitCmd = &cobra.Command{
	Use:   "hit X Y",
	Short: "Print the topmost lot under a master pixel position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parsePoint(args[0], args[1])
		if err != nil {
			return err
		}
		s, err := openViewer(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		i := s.HitTest(p)
		if i < 0 {
			fmt.Println("-1")
			return nil
		}
		ly := s.List().At(i)
		fmt.Printf("%d\t%s\t%s\n", i, ly.MediaID, ly.URL)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&outFile, "out", "o", "lotwarp.png", "Output PNG path")
	renderCmd.Flags().IntVar(&highlight, "highlight", -1, "Layer index to tint and outline")
	renderCmd.Flags().Float64Var(&scale, "scale", 1, "Output scale factor")
	renderCmd.Flags().IntVar(&grid, "grid", 0, "Warp grid size (overrides config)")
}

// openViewer opens the project read-only and waits for its images.
func openViewer(cmd *cobra.Command) (*viewer.Session, error) {
	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	loader, err := openLoader()
	if err != nil {
		return nil, err
	}
	g := env.cfg.Render.Grid
	if grid > 0 {
		g = grid
	}
	s, err := viewer.Open(ctx, st, env.cfg.Project,
		viewer.WithLoader(loader, env.cfg.Assets.Concurrency),
		viewer.WithLogger(env.log.With("project", env.cfg.Project)),
		viewer.WithGrid(g),
	)
	if err != nil {
		return nil, err
	}
	if err := s.Await(ctx); err != nil {
		s.Close()
		return nil, err
	}
	for _, ly := range s.List().Layers() {
		if ly.LoadErr != nil {
			env.log.Warn("layer image unavailable", "kind", ly.Kind, "url", ly.URL, "error", ly.LoadErr)
		}
	}
	return s, nil
}

// writeScaled resamples the canvas with Catmull-Rom before encoding.
func writeScaled(c *warp.Canvas, path string, factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("scale must be positive, got %s", strconv.FormatFloat(factor, 'g', -1, 64))
	}
	w := max(1, int(float64(c.Width())*factor+0.5))
	h := max(1, int(float64(c.Height())*factor+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	src := c.Image()
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
