package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apps-seb/lotwarp/pkg/assets"
	"github.com/apps-seb/lotwarp/pkg/config"
	"github.com/apps-seb/lotwarp/pkg/editor"
	"github.com/apps-seb/lotwarp/pkg/geo"
	"github.com/apps-seb/lotwarp/pkg/layer"
	"github.com/apps-seb/lotwarp/pkg/logging"
	"github.com/apps-seb/lotwarp/pkg/store"
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#50FA7B"))

	cornerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#BD93F9")).
			Padding(0, 1)
)

var cornerNames = [4]string{"top-left", "top-right", "bottom-right", "bottom-left"}

type imageMsg assets.Result

type model struct {
	session *editor.Session
	project string
	outFile string

	lot    int // position in session.List().Lots()
	corner int
	step   float64

	spinner spinner.Model
	loading bool
	status  string
	err     error
}

func initialModel(s *editor.Session, project, out string) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))
	return model{
		session: s,
		project: project,
		outFile: out,
		step:    1,
		spinner: sp,
		loading: s.Pending() > 0,
	}
}

// waitForImage blocks on the session's load results.
func waitForImage(s *editor.Session) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-s.Results()
		if !ok {
			return nil
		}
		return imageMsg(res)
	}
}

func (m model) Init() tea.Cmd {
	if !m.loading {
		return nil
	}
	return tea.Batch(m.spinner.Tick, waitForImage(m.session))
}

func (m model) lots() []int {
	return m.session.List().Lots()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case imageMsg:
		m.session.ImageLoaded(assets.Result(msg))
		if msg.Err != nil {
			m.status = errorStyle.Render("image failed: " + msg.URL)
		}
		if m.session.Pending() > 0 {
			return m, waitForImage(m.session)
		}
		m.loading = false
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lots := m.lots()
	m.err = nil
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		if len(lots) > 0 {
			m.lot = (m.lot + 1) % len(lots)
		}
	case "shift+tab":
		if len(lots) > 0 {
			m.lot = (m.lot - 1 + len(lots)) % len(lots)
		}
	case "1", "2", "3", "4":
		m.corner = int(msg.String()[0] - '1')
	case "]":
		m.step = min(m.step*2, 256)
	case "[":
		m.step = max(m.step/2, 0.25)
	case "up", "k":
		m.nudge(lots, geo.Pt(0, -m.step))
	case "down", "j":
		m.nudge(lots, geo.Pt(0, m.step))
	case "left", "h":
		m.nudge(lots, geo.Pt(-m.step, 0))
	case "right", "l":
		m.nudge(lots, geo.Pt(m.step, 0))
	case "r":
		m.render()
	}
	return m, nil
}

func (m *model) nudge(lots []int, d geo.Point) {
	if len(lots) == 0 {
		m.err = errors.New("no lots to move")
		return
	}
	i := lots[m.lot%len(lots)]
	err := m.session.NudgeCorner(context.Background(), i, m.corner, d)
	switch {
	case errors.Is(err, layer.ErrBowtie):
		m.err = errors.New("that move would cross the quad")
	case err != nil:
		m.err = err
	default:
		p := m.session.List().At(i).Dst[m.corner]
		m.status = fmt.Sprintf("lot %d %s -> (%.2f, %.2f)", i, cornerNames[m.corner], p.X, p.Y)
	}
}

func (m *model) render() {
	if lots := m.lots(); len(lots) > 0 {
		_ = m.session.Select(lots[m.lot%len(lots)])
	}
	c, err := m.session.Render()
	if err != nil {
		m.err = err
		return
	}
	defer c.Close()
	if err := c.SavePNG(m.outFile); err != nil {
		m.err = err
		return
	}
	m.status = "rendered " + m.outFile
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("lotwarp · " + m.project))
	b.WriteString("\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " " + infoStyle.Render(fmt.Sprintf("loading %d images...", m.session.Pending())) + "\n\n")
	}

	list := m.session.List()
	lots := m.lots()
	if master := list.Master(); master != nil {
		w, h := master.Size()
		b.WriteString(dimStyle.Render(fmt.Sprintf("master %s  %.0fx%.0f", master.URL, w, h)) + "\n\n")
	} else {
		b.WriteString(errorStyle.Render("no master image; set one with `lotwarp master`") + "\n\n")
	}

	var rows strings.Builder
	if len(lots) == 0 {
		rows.WriteString(dimStyle.Render("no lots yet"))
	}
	for pos, i := range lots {
		ly := list.At(i)
		name := fmt.Sprintf("lot %d  %s", i, ly.URL)
		if ly.LoadErr != nil {
			name += errorStyle.Render("  (image unavailable)")
		}
		if pos == m.lot%max(len(lots), 1) {
			rows.WriteString(selectedStyle.Render("> "+name) + "\n")
			for c, p := range ly.Dst {
				line := fmt.Sprintf("    %d %-12s (%8.2f, %8.2f)", c+1, cornerNames[c], p.X, p.Y)
				if c == m.corner {
					line = cornerStyle.Render(line)
				}
				rows.WriteString(line + "\n")
			}
		} else {
			rows.WriteString("  " + name + "\n")
		}
	}
	b.WriteString(boxStyle.Render(strings.TrimRight(rows.String(), "\n")))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(infoStyle.Render(m.status) + "\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf(
		"tab lot · 1-4 corner · arrows/hjkl move %gpx · [ ] step · r render · q quit", m.step)))
	b.WriteString("\n")
	return b.String()
}

func main() {
	var (
		configFile = flag.String("config", "", "Config file (.yaml, .yml or .toml)")
		project    = flag.String("project", "", "Project id (overrides config)")
		storeDir   = flag.String("store-dir", "", "File store directory (overrides config)")
		outFile    = flag.String("out", "lotwarp-demo.png", "PNG written by the render key")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *project != "" {
		cfg.Project = *project
	}
	if *storeDir != "" {
		cfg.Store.Dir = *storeDir
	}

	// The terminal belongs to the UI; logs only go to the file.
	logger, cleanup, err := logging.Setup(logging.Options{
		File:         cfg.Log.File,
		Level:        cfg.Log.Level,
		MaxSizeMB:    cfg.Log.MaxSizeMB,
		MaxBackups:   cfg.Log.MaxBackups,
		Console:      io.Discard,
		ConsoleLevel: "error",
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer cleanup()

	ctx := context.Background()
	st, closeStore, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.Dir, cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	timeout := time.Duration(cfg.Assets.TimeoutSeconds) * time.Second
	loader, err := assets.NewCachedLoader(assets.NewDefaultLoader(cfg.Assets.Root, timeout), cfg.Assets.CacheSize)
	if err != nil {
		log.Fatalf("Failed to create loader: %v", err)
	}

	s := editor.New(
		editor.WithStore(st, cfg.Project),
		editor.WithLoader(loader, cfg.Assets.Concurrency),
		editor.WithLogger(logger.With("project", cfg.Project)),
		editor.WithGrid(cfg.Render.Grid),
		editor.WithHandleRadius(cfg.Render.HandleRadius),
	)
	defer s.Close()
	if err := s.Load(ctx); err != nil {
		log.Fatalf("Failed to load project: %v", err)
	}

	if _, err := tea.NewProgram(initialModel(s, cfg.Project, *outFile)).Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
