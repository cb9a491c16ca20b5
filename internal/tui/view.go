package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"todosync/internal/lifecycle"
	"todosync/internal/model"
	"todosync/internal/output"
	"todosync/internal/syncer"
)

const (
	minListsWidth = 22
	minItemsWidth = 40
)

// View implements tea.Model.
func (m Model) View() string {
	ctl := m.app.Controller()
	selected, err := ctl.Selected()
	if err != nil {
		return mutedStyle.Render("no lists") + "\n"
	}

	lists := m.renderLists(selected.ID)
	items := m.renderItems(selected)

	listsStyle, itemsStyle := panelStyle, panelStyle
	if m.Focus == PanelLists {
		listsStyle = focusedPanelStyle
	} else {
		itemsStyle = focusedPanelStyle
	}
	itemsWidth := minItemsWidth
	if m.Width > minListsWidth+minItemsWidth+4 {
		itemsWidth = m.Width - minListsWidth - 8
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		listsStyle.Width(minListsWidth).Render(lists),
		itemsStyle.Width(itemsWidth).Render(items),
	))
	b.WriteString("\n")

	if conf, ok := ctl.Confirmation(); ok && m.Mode == ModeConfirm {
		b.WriteString(renderConfirm(conf))
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpLine()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderLists(selected model.ID) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Lists"))
	b.WriteString("\n")
	for i, l := range m.app.Repository().Lists() {
		line := fmt.Sprintf("%c %s %s", output.Letter(i), swatch(l.Color), l.Name)
		if l.ID == selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.Mode == ModeNewList {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		if m.fieldErr != "" {
			b.WriteString(errorStyle.Render(m.fieldErr))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderItems(list model.TaskList) string {
	var b strings.Builder
	if m.Mode == ModeRenameList {
		b.WriteString(m.input.View())
		if m.fieldErr != "" {
			b.WriteString("  " + errorStyle.Render(m.fieldErr))
		}
	} else {
		b.WriteString(titleStyle.Render(list.Name))
	}
	b.WriteString("\n")

	items := list.RealItems()
	if len(items) == 0 && m.Mode != ModeNewItem {
		b.WriteString(mutedStyle.Render("(no items, press n to add one)"))
	}
	for i, it := range items {
		if m.Mode == ModeEditItem && it.ID == m.editing {
			b.WriteString("[ ] " + m.input.View())
			b.WriteString("\n")
			continue
		}
		line := renderItem(it)
		if m.Focus == PanelItems && i == m.Cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.Mode == ModeNewItem {
		b.WriteString("[ ] " + m.input.View())
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderItem(it model.TaskItem) string {
	body := it.Body
	if strings.TrimSpace(body) == "" {
		body = "(untitled)"
	}
	if it.Status == model.StatusCompleted {
		return "[x] " + doneStyle.Render(body)
	}
	return "[ ] " + body
}

func renderConfirm(c lifecycle.Confirmation) string {
	var q string
	if c.Kind == lifecycle.ConfirmList {
		q = fmt.Sprintf("Delete list %q and all its items?", c.Label)
	} else {
		q = fmt.Sprintf("Delete %q?", c.Label)
	}
	return dialogStyle.Render(q + "\n" + helpStyle.Render("y delete · n cancel"))
}

func (m Model) renderStatus() string {
	var state string
	switch m.status.Kind {
	case syncer.Synced:
		state = syncedStyle.Render("● synced")
	case syncer.Syncing:
		state = syncingStyle.Render("● syncing")
	default:
		state = errorStyle.Render("● " + m.status.String())
	}
	if m.notice == nil {
		return state
	}
	msg := m.notice.Message
	if m.notice.Level == lifecycle.Error {
		msg = errorStyle.Render(msg)
	}
	return state + "  " + msg
}

func (m Model) helpLine() string {
	switch m.Mode {
	case ModeConfirm:
		return "y confirm · n cancel"
	case ModeNewList, ModeRenameList:
		return "enter save · tab check · esc cancel"
	case ModeEditItem, ModeNewItem:
		return "enter save · esc cancel"
	default:
		return "↑/↓ move · ←/→ list · enter edit · space toggle · n new item · N new list · r rename · d delete · tab focus · q quit"
	}
}
