package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"refan/internal/report"
	"refan/internal/session"
	"refan/pkg/migrate"
)

// truncate shortens a line to maxWidth display cells, accounting for
// wide runes, so diff lines never wrap and break the layout.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 || runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth-1, "…")
}

// Init initializes the TUI model and returns any initial commands to run.
func (m model) Init() tea.Cmd {
	return nil
}

// Run launches the review TUI: every target is patched in memory (dry run)
// and the resulting reports and diffs are browsable. No file is written.
func Run(m *migrate.Migration, paths []string, logger *zap.Logger) error {
	if len(paths) == 0 {
		paths = m.Targets
	}
	if len(paths) == 0 {
		return fmt.Errorf("no target files: pass paths or set targets in the migration")
	}

	items := make([]FileItem, 0, len(paths))
	for _, path := range paths {
		item := FileItem{Path: path}
		sess, err := session.New(path, m, session.WithLogger(logger))
		if err != nil {
			item.Err = err.Error()
			item.Rep = &report.Report{Path: path}
			items = append(items, item)
			continue
		}
		rep, runErr := sess.Run()
		item.Rep = rep
		if runErr != nil {
			item.Err = runErr.Error()
		} else {
			item.Diff = sess.Diff()
		}
		items = append(items, item)
	}

	mdl := InitialModel(items, m.Name, 24)
	p := tea.NewProgram(&teaModelAdapter{mdl})

	_, err := p.Run()
	return err
}

// teaModelAdapter adapts our model to the tea.Model interface using Update and ModelView.
type teaModelAdapter struct {
	m model
}

func (a *teaModelAdapter) Init() tea.Cmd {
	return a.m.Init()
}

func (a *teaModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m2, cmd := Update(a.m, msg)
	a.m = m2
	return a, cmd
}

func (a *teaModelAdapter) View() string {
	return ModelView(a.m)
}
