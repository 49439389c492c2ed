package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all Bubbletea update logic for the TUI model.
func Update(m model, msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return HandleKeyMsg(m, msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, maxInt(msg.Height-6, 5))
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// HandleKeyMsg handles key presses for all views.
func HandleKeyMsg(m model, msg tea.KeyMsg) (model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" || (key == "q" && m.ActiveView != ViewDetail) {
		m.ActiveView = ViewQuitting
		return m, tea.Quit
	}

	switch m.ActiveView {
	case ViewFileList:
		switch key {
		case "enter":
			if len(m.items) == 0 {
				return m, nil
			}
			m.Selected = m.list.Index()
			m.offset = 0
			m.ActiveView = ViewDetail
			return m, nil
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case ViewDetail:
		switch key {
		case "esc", "q":
			m.ActiveView = ViewFileList
			return m, nil
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
			return m, nil
		case "down", "j":
			if m.offset < maxInt(len(detailLines(m))-1, 0) {
				m.offset++
			}
			return m, nil
		case "pgup":
			m.offset = maxInt(m.offset-(m.height-8), 0)
			return m, nil
		case "pgdown":
			m.offset = minInt(m.offset+(m.height-8), maxInt(len(detailLines(m))-1, 0))
			return m, nil
		}
	}
	return m, nil
}

// minInt returns the minimum of two ints.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
