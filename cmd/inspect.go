package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/apps-seb/lotwarp/pkg/config"
	"github.com/apps-seb/lotwarp/pkg/geo"
	"github.com/apps-seb/lotwarp/pkg/layer"
	"github.com/apps-seb/lotwarp/pkg/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6"))

	masterStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	lotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))
)

func init() {
	// Disable colors if not in a terminal
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		plain := lipgloss.NewStyle()
		titleStyle, masterStyle, lotStyle, warnStyle, dimStyle = plain, plain, plain, plain, plain
	}
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Describe the project's layers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		blob, err := st.Load(cmd.Context(), env.cfg.Project)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Println(warnStyle.Render("Project " + env.cfg.Project + " has no layers yet"))
			return nil
		}
		if err != nil {
			return err
		}
		list, rep, err := layer.Decode(blob)
		fmt.Print(describe(env.cfg.Project, list, rep, err))
		return nil
	},
}

func describe(name string, list *layer.List, rep layer.Report, decodeErr error) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Project "+name) + "\n")
	if decodeErr != nil {
		b.WriteString(warnStyle.Render("Stored list is malformed: "+decodeErr.Error()) + "\n")
	}
	if rep.Dropped > 0 || rep.Corrected > 0 || rep.Masters > 1 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Repaired on load: %d dropped, %d re-ordered, %d masters seen",
			rep.Dropped, rep.Corrected, rep.Masters)) + "\n")
	}
	for i, ly := range list.Layers() {
		style := lotStyle
		if ly.Kind == layer.KindMaster {
			style = masterStyle
		}
		media := ly.MediaID
		if media == "" {
			media = "-"
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			style.Render(fmt.Sprintf("[%d] %-6s", i, ly.Kind)),
			media,
			dimStyle.Render(ly.URL)))
		b.WriteString(fmt.Sprintf("    dst %s  area %.1f\n", corners(ly.Dst), geo.SignedArea(ly.Dst[:])))
		if ly.Kind == layer.KindLot && ly.Src != ([4]geo.Point{}) {
			w, h := ly.Size()
			b.WriteString(dimStyle.Render(fmt.Sprintf("    src %.0fx%.0f", w, h)) + "\n")
		}
	}
	if list.Len() == 0 {
		b.WriteString(dimStyle.Render("(no layers)") + "\n")
	}
	return b.String()
}

func corners(q [4]geo.Point) string {
	parts := make([]string, len(q))
	for i, p := range q {
		parts[i] = fmt.Sprintf("(%g,%g)", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List stored projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		l, ok := st.(store.Lister)
		if !ok {
			return fmt.Errorf("store %s cannot list projects", env.cfg.Store.Driver)
		}
		ids, err := l.Projects(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init PATH",
	Short: "Write the effective configuration to a YAML or TOML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Write(args[0], env.cfg); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", args[0])
		return nil
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Postgres store helpers",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the project_layers table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env.cfg.Store.Driver = config.DriverPostgres
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		pg := st.(*store.PostgresStore)
		if err := pg.InitSchema(cmd.Context()); err != nil {
			return err
		}
		n, err := pg.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Schema ready, %d projects stored\n", n)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	dbCmd.AddCommand(dbInitCmd)
}
