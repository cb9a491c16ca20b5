// Package tui is the interactive terminal interface: lists on the left, the
// items of the selected list on the right, the sync state underneath.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todosync/internal/app"
	"todosync/internal/editing"
	"todosync/internal/lifecycle"
	"todosync/internal/model"
	"todosync/internal/syncer"
)

// noticeTTL is how long a transient notice stays on screen.
const noticeTTL = 3 * time.Second

// Panel is the focused column.
type Panel int

const (
	PanelLists Panel = iota
	PanelItems
)

// Mode is what keys currently drive.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeEditItem
	ModeNewItem
	ModeNewList
	ModeRenameList
	ModeConfirm
)

// statusMsg carries a sync state change into the event loop.
type statusMsg syncer.State

// noticeMsg carries a user notice into the event loop.
type noticeMsg lifecycle.Notice

// expireNoticeMsg clears the notice with the given sequence number.
type expireNoticeMsg int

// Model is the Bubble Tea model of the interface.
type Model struct {
	ctx context.Context
	app *app.App

	Width  int
	Height int

	Focus  Panel
	Mode   Mode
	Cursor int // item row in the selected list

	input    textinput.Model
	editing  model.ID
	fieldErr string

	status    syncer.State
	notice    *lifecycle.Notice
	noticeSeq int
}

// New returns the model over a bootstrapped App.
func New(ctx context.Context, a *app.App) Model {
	in := textinput.New()
	in.CharLimit = 500
	return Model{
		ctx:    ctx,
		app:    a,
		Focus:  PanelItems,
		input:  in,
		status: a.Status().Get(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		return m, nil

	case statusMsg:
		// Messages may arrive out of order; the latch holds the current state.
		m.status = m.app.Status().Get()
		m.clampCursor()
		return m, nil

	case noticeMsg:
		return m.showNotice(lifecycle.Notice(msg))

	case expireNoticeMsg:
		if int(msg) == m.noticeSeq {
			m.notice = nil
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.Mode {
	case ModeConfirm:
		return m.handleConfirmKey(msg)
	case ModeEditItem, ModeNewItem, ModeNewList, ModeRenameList:
		return m.handleInputKey(msg)
	default:
		return m.handleBrowseKey(msg)
	}
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctl := m.app.Controller()

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "tab":
		if m.Focus == PanelLists {
			m.Focus = PanelItems
		} else {
			m.Focus = PanelLists
		}

	case "up", "k":
		if m.Focus == PanelLists {
			m.moveList(-1)
		} else if m.Cursor > 0 {
			m.Cursor--
		}

	case "down", "j":
		if m.Focus == PanelLists {
			m.moveList(1)
		} else {
			m.Cursor++
			m.clampCursor()
		}

	case "left", "h":
		m.moveList(-1)

	case "right", "l":
		m.moveList(1)

	case "enter", "e":
		item, ok := m.currentItem()
		if !ok {
			break
		}
		res, _, err := m.app.Arbiter().RequestEdit(m.ctx, item.ID)
		if err != nil || res != editing.Started {
			break
		}
		m.editing = item.ID
		return m.startInput(ModeEditItem, item.Body, "")

	case " ", "x":
		if item, ok := m.currentItem(); ok {
			if _, err := ctl.ToggleStatus(m.ctx, item.ID); err != nil {
				return m.localError(err)
			}
		}

	case "n", "a":
		return m.startInput(ModeNewItem, "", "New item")

	case "N", "A":
		return m.startInput(ModeNewList, "", "List name")

	case "r":
		if list, err := ctl.Selected(); err == nil {
			return m.startInput(ModeRenameList, list.Name, "List name")
		}

	case "d":
		if m.Focus == PanelLists {
			if list, err := ctl.Selected(); err == nil && ctl.RequestDeleteList(list.ID) == nil {
				m.Mode = ModeConfirm
			}
		} else if item, ok := m.currentItem(); ok && ctl.RequestDeleteItem(item.ID) == nil {
			m.Mode = ModeConfirm
		}
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctl := m.app.Controller()
	switch msg.String() {
	case "y", "enter":
		ctl.Confirm(m.ctx)
		m.Mode = ModeBrowse
		m.clampCursor()
	case "n", "esc", "q":
		ctl.Cancel()
		m.Mode = ModeBrowse
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.submitInput()
	case tea.KeyEsc:
		if m.Mode == ModeEditItem {
			m.app.Arbiter().Cancel()
		}
		return m.stopInput(), nil
	case tea.KeyTab:
		// Leaving the name field validates it.
		if m.Mode == ModeNewList || m.Mode == ModeRenameList {
			m.fieldErr = fieldMessage(m.app.Controller().ValidateListName(m.input.Value()))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.fieldErr != "" && strings.TrimSpace(m.input.Value()) != "" {
		m.fieldErr = ""
	}
	return m, cmd
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	ctl := m.app.Controller()
	value := m.input.Value()

	switch m.Mode {
	case ModeEditItem:
		arb := m.app.Arbiter()
		if err := arb.SetDraft(m.editing, value); err != nil {
			arb.Cancel()
			return m.stopInput(), nil
		}
		arb.HandleKey(m.ctx, m.editing, editing.KeyEnter)

	case ModeNewItem:
		if strings.TrimSpace(value) == "" {
			return m.stopInput(), nil
		}
		if list, err := ctl.Selected(); err == nil {
			ctl.CreateItem(m.ctx, list.ID, strings.TrimSpace(value))
		}

	case ModeNewList:
		id, _, err := ctl.CreateList(m.ctx, value, "")
		if err != nil {
			m.fieldErr = fieldMessage(err)
			return m, nil
		}
		ctl.SelectList(id)
		m.Cursor = 0

	case ModeRenameList:
		list, err := ctl.Selected()
		if err != nil {
			return m.stopInput(), nil
		}
		if _, err := ctl.UpdateList(m.ctx, list.ID, value, ""); err != nil {
			m.fieldErr = fieldMessage(err)
			return m, nil
		}
	}

	m = m.stopInput()
	m.clampCursor()
	return m, nil
}

func (m Model) startInput(mode Mode, value, placeholder string) (tea.Model, tea.Cmd) {
	m.Mode = mode
	m.fieldErr = ""
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) stopInput() Model {
	m.Mode = ModeBrowse
	m.editing = ""
	m.fieldErr = ""
	m.input.Blur()
	m.input.SetValue("")
	return m
}

// moveList selects the neighbouring list in direction delta.
func (m *Model) moveList(delta int) {
	ctl := m.app.Controller()
	next := ctl.SelectedIndex() + delta
	if next < 0 || next >= m.app.Repository().Len() {
		return
	}
	if ctl.SelectIndex(next) == nil {
		m.Cursor = 0
	}
}

// currentItem returns the real item under the cursor.
func (m Model) showNotice(n lifecycle.Notice) (Model, tea.Cmd) {
	m.notice = &n
	m.noticeSeq++
	seq := m.noticeSeq
	return m, tea.Tick(noticeTTL, func(time.Time) tea.Msg { return expireNoticeMsg(seq) })
}

// localError reports an error raised before any remote call was made.
func (m Model) localError(err error) (Model, tea.Cmd) {
	return m.showNotice(lifecycle.Notice{Level: lifecycle.Error, Message: fieldMessage(err)})
}

func (m Model) currentItem() (model.TaskItem, bool) {
	list, err := m.app.Controller().Selected()
	if err != nil {
		return model.TaskItem{}, false
	}
	items := list.RealItems()
	if m.Cursor < 0 || m.Cursor >= len(items) {
		return model.TaskItem{}, false
	}
	return items[m.Cursor], true
}

func (m *Model) clampCursor() {
	list, err := m.app.Controller().Selected()
	if err != nil {
		m.Cursor = 0
		return
	}
	n := len(list.RealItems())
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

// fieldMessage returns the text shown under an input for err.
func fieldMessage(err error) string {
	if err == nil {
		return ""
	}
	var v *model.ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	return err.Error()
}
