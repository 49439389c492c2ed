package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"refan/internal/report"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	appliedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	abortStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	addStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	delStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// ModelView renders the TUI model's view as a string.
func ModelView(m model) string {
	switch m.ActiveView {
	case ViewQuitting:
		return quittingView()
	case ViewDetail:
		return detailView(m)
	case ViewFileList:
		return fileListView(m)
	default:
		return fileListView(m)
	}
}

func quittingView() string {
	return "Dry run only, no files were modified.\n"
}

func fileListView(m model) string {
	fileList := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#555555")).
		Padding(1).
		Render(m.list.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		fileList,
		hintStyle.Render("enter: inspect file  q: quit"),
	)
}

func detailView(m model) string {
	lines := detailLines(m)
	visible := maxInt(m.height-4, 5)
	from := minInt(m.offset, maxInt(len(lines)-1, 0))
	to := minInt(from+visible, len(lines))

	body := strings.Join(lines[from:to], "\n")
	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		hintStyle.Render("j/k: scroll  esc: back  ctrl+c: quit"),
	)
}

// detailLines builds the scrollable report-plus-diff view for the selected
// file.
func detailLines(m model) []string {
	if m.Selected >= len(m.items) {
		return nil
	}
	item := m.items[m.Selected]

	var lines []string
	lines = append(lines, headerStyle.Render(item.Path))
	for _, res := range item.Rep.Results {
		switch res.Outcome {
		case report.OutcomeApplied:
			lines = append(lines, appliedStyle.Render(fmt.Sprintf("  + %s  line %d", res.Rule, res.Line)))
		default:
			lines = append(lines, skippedStyle.Render(fmt.Sprintf("  - %s  %s", res.Rule, res.Reason)))
		}
	}
	if item.Err != "" {
		lines = append(lines, abortStyle.Render("  ! session aborted: "+item.Err))
	}
	lines = append(lines, "")

	if item.Diff == "" {
		lines = append(lines, hintStyle.Render("no changes"))
		return lines
	}
	for _, dl := range strings.Split(strings.TrimSuffix(item.Diff, "\n"), "\n") {
		dl = truncate(dl, m.width)
		switch {
		case strings.HasPrefix(dl, "+"):
			lines = append(lines, addStyle.Render(dl))
		case strings.HasPrefix(dl, "-"):
			lines = append(lines, delStyle.Render(dl))
		default:
			lines = append(lines, dl)
		}
	}
	return lines
}
