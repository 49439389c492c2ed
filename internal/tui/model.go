package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"refan/internal/report"
)

// FileItem represents one dry-run session outcome for the list.
type FileItem struct {
	Path string
	Rep  *report.Report
	Diff string
	Err  string
}

func (f FileItem) Title() string { return f.Path }

func (f FileItem) Description() string {
	if f.Err != "" {
		return "aborted: " + f.Err
	}
	return fmt.Sprintf("%d applied, %d skipped", f.Rep.Applied(), f.Rep.Skipped())
}

func (f FileItem) FilterValue() string { return f.Path }

// ViewState identifies which screen the TUI is showing.
type ViewState int

const (
	ViewFileList ViewState = iota
	ViewDetail
	ViewQuitting
)

// model is the Bubbletea model for the review TUI.
type model struct {
	list       list.Model
	items      []FileItem
	ActiveView ViewState
	Selected   int
	offset     int // scroll offset within the detail view
	height     int // Track terminal height for dynamic resizing
	width      int // Track terminal width for dynamic resizing
}

// InitialModel creates the initial TUI model over the dry-run results.
func InitialModel(items []FileItem, migrationName string, height int) model {
	listItems := make([]list.Item, len(items))
	for i, it := range items {
		listItems[i] = it
	}
	listHeight := maxInt(height-6, 5)
	defaultWidth := 80
	delegate := list.NewDefaultDelegate()
	l := list.New(listItems, delegate, defaultWidth, listHeight)
	l.Title = migrationName + " (dry run)"

	return model{
		list:   l,
		items:  items,
		height: height,
		width:  defaultWidth,
	}
}

// maxInt returns the maximum of two ints.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
