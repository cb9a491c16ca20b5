package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"todosync/internal/app"
	"todosync/internal/config"
	"todosync/internal/gateway"
)

// AccountsOpener opens the backend for account operations.
type AccountsOpener func(ctx context.Context, cfg *config.Config) (gateway.Gateway, error)

// Env is what a command runs against.
type Env struct {
	Config *config.Config

	// App is the bootstrapped session of commands that need auth.
	App *app.App

	// In is read for confirmations and credentials.
	In io.Reader

	Log *slog.Logger

	// OpenAccounts opens the backend for signin, signup and logout.
	OpenAccounts AccountsOpener

	reader    *bufio.Reader
	readerSrc io.Reader
	accounts  gateway.Gateway
}

// Accounts opens the account backend on first use.
func (e *Env) Accounts(ctx context.Context) (gateway.Gateway, error) {
	if e.accounts != nil {
		return e.accounts, nil
	}
	if e.OpenAccounts == nil {
		return nil, errors.New("no account backend configured")
	}
	gw, err := e.OpenAccounts(ctx, e.Config)
	if err != nil {
		return nil, err
	}
	e.accounts = gw
	return gw, nil
}

// Close releases the account backend, if one was opened.
func (e *Env) Close() error {
	if c, ok := e.accounts.(gateway.Closer); ok {
		return c.Close()
	}
	return nil
}

func (e *Env) logger() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

// readLine reads one line from In without the line ending.
func (e *Env) readLine() (string, error) {
	if e.In == nil {
		return "", io.EOF
	}
	if e.reader == nil || e.readerSrc != e.In {
		e.reader = bufio.NewReader(e.In)
		e.readerSrc = e.In
	}
	line, err := e.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// confirm asks a yes/no question on errOut. Anything but y/yes is no.
func (e *Env) confirm(errOut io.Writer, question string) bool {
	fmt.Fprintf(errOut, "%s [y/N] ", question)
	answer, err := e.readLine()
	if err != nil {
		fmt.Fprintln(errOut)
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// prompt asks for a line of input on errOut.
func (e *Env) prompt(errOut io.Writer, label string) (string, error) {
	fmt.Fprint(errOut, label)
	line, err := e.readLine()
	if err != nil {
		fmt.Fprintln(errOut)
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// password reads a password, without echo when In is a terminal.
func (e *Env) password(errOut io.Writer, label string) (string, error) {
	f, ok := e.In.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(errOut, label)
		line, err := e.readLine()
		if err != nil {
			fmt.Fprintln(errOut)
		}
		return line, err
	}
	fmt.Fprint(errOut, label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(errOut)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
