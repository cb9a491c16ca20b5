// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todosync/internal/model"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"

	// MaxLetters is the number of lists that can be addressed by letter.
	MaxLetters = 26
)

// Letter returns the letter addressing the list at index i, or '?' past z.
func Letter(i int) rune {
	if i < 0 || i >= MaxLetters {
		return '?'
	}
	return rune('a' + i)
}

// FormatItem formats an item line.
// Format: "{N:>4}  [x] {BODY}\n"
func FormatItem(w io.Writer, num int, item model.TaskItem) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, checkbox(item.Status), normalizeTitle(item.Body))
}

// FormatListHeader formats a list section header.
func FormatListHeader(w io.Writer, letter rune, name string) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintf(w, "%c  %s\n", letter, normalizeListTitle(name))
	fmt.Fprintln(w, ListSeparator)
}

// FormatList formats a whole list section. The placeholder shows as "(no items)".
func FormatList(w io.Writer, letter rune, list model.TaskList) {
	FormatListHeader(w, letter, list.Name)
	items := list.RealItems()
	if len(items) == 0 {
		fmt.Fprintln(w, "      (no items)")
		return
	}
	for i, item := range items {
		FormatItem(w, i+1, item)
	}
}

// FormatListName formats a list line for the lists command.
// Format: "{LETTER}  {NAME}  {COLOR}  {DONE}/{TOTAL}\n"
func FormatListName(w io.Writer, letter rune, list model.TaskList) {
	items := list.RealItems()
	done := 0
	for _, it := range items {
		if it.Status == model.StatusCompleted {
			done++
		}
	}
	fmt.Fprintf(w, "%c  %s  %s  %d/%d\n", letter, normalizeListTitle(list.Name), list.Color, done, len(items))
}

func checkbox(s model.Status) string {
	if s == model.StatusCompleted {
		return "[x]"
	}
	return "[ ]"
}

// normalizeTitle normalizes an item body for display.
// - Empty or whitespace-only bodies become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// normalizeListTitle normalizes a list name for display.
// Empty or whitespace-only names become "(untitled)".
func normalizeListTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
