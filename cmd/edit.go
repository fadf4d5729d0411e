package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/apps-seb/lotwarp/pkg/editor"
	"github.com/apps-seb/lotwarp/pkg/geo"
)

var mediaID string

var masterCmd = &cobra.Command{
	Use:   "master URL",
	Short: "Set the master map image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openEditor(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.SetMasterImage(cmd.Context(), editor.ImageRef{URL: args[0], MediaID: mediaID}); err != nil {
			return err
		}
		// Persist again once the size is known.
		if err := s.Await(cmd.Context()); err != nil {
			return err
		}
		if err := s.Save(cmd.Context()); err != nil {
			return err
		}
		w, h := s.List().Master().Size()
		fmt.Printf("Master set to %s (%.0fx%.0f)\n", args[0], w, h)
		return nil
	},
}

var lotCmd = &cobra.Command{
	Use:   "lot URL",
	Short: "Add a lot image over the middle of the map",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openEditor(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		i, err := s.AddLotLayer(cmd.Context(), editor.ImageRef{URL: args[0], MediaID: mediaID})
		if err != nil {
			return err
		}
		if err := s.Await(cmd.Context()); err != nil {
			return err
		}
		if err := s.Save(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Added lot %d: %s\n", i, args[0])
		return nil
	},
}

var dragCmd = &cobra.Command{
	Use:   "drag LAYER CORNER X Y",
	Short: "Move one corner of a lot to a master pixel position",
	Long: `Move corner CORNER (0 top-left, 1 top-right, 2 bottom-right, 3 bottom-left)
of lot LAYER to (X, Y). Moves that would make the quad cross itself are refused.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, c, err := parseIndexPair(args[0], args[1])
		if err != nil {
			return err
		}
		p, err := parsePoint(args[2], args[3])
		if err != nil {
			return err
		}
		s, err := openEditor(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.MoveCorner(cmd.Context(), i, c, p); err != nil {
			return fmt.Errorf("failed to move corner: %w", err)
		}
		fmt.Printf("Lot %d corner %d moved to (%g, %g)\n", i, c, p.X, p.Y)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove LAYER",
	Short: "Remove a layer by paint index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid layer index %q: %w", args[0], err)
		}
		s, err := openEditor(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.RemoveLayer(cmd.Context(), i); err != nil {
			return err
		}
		fmt.Printf("Removed layer %d\n", i)
		return nil
	},
}

func init() {
	masterCmd.Flags().StringVarP(&mediaID, "media-id", "m", "", "Media library id of the image")
	lotCmd.Flags().StringVarP(&mediaID, "media-id", "m", "", "Media library id of the image")
}

// openEditor loads the configured project into an editor session. Images
// are requested but not awaited.
func openEditor(ctx context.Context) (*editor.Session, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	loader, err := openLoader()
	if err != nil {
		return nil, err
	}
	s := editor.New(
		editor.WithStore(st, env.cfg.Project),
		editor.WithLoader(loader, env.cfg.Assets.Concurrency),
		editor.WithLogger(env.log.With("project", env.cfg.Project)),
		editor.WithGrid(env.cfg.Render.Grid),
		editor.WithHandleRadius(env.cfg.Render.HandleRadius),
		editor.WithNotifier(editor.NotifierFunc(func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		})),
	)
	if err := s.Load(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func parseIndexPair(a, b string) (int, int, error) {
	i, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid layer index %q: %w", a, err)
	}
	c, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid corner %q: %w", b, err)
	}
	return i, c, nil
}

func parsePoint(xs, ys string) (geo.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid x %q: %w", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid y %q: %w", ys, err)
	}
	p := geo.Pt(x, y)
	if !p.Finite() {
		return geo.Point{}, fmt.Errorf("point (%s, %s) is not finite", xs, ys)
	}
	return p, nil
}
