package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"todosync/internal/app"
	"todosync/internal/lifecycle"
	"todosync/internal/syncer"
)

// Run shows the interface until the user quits or ctx is cancelled.
// Sync state changes and notices raised on remote-call goroutines are
// delivered to the program as messages.
func Run(ctx context.Context, a *app.App, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, a), opts...)

	// Send blocks until the program reads the message; observers must not.
	unsubStatus := a.Status().Subscribe(func(s syncer.State) { go p.Send(statusMsg(s)) })
	defer unsubStatus()
	unsubNotice := a.Subscribe(func(n lifecycle.Notice) { go p.Send(noticeMsg(n)) })
	defer unsubNotice()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
