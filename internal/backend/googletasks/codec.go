package googletasks

import (
	"regexp"

	"todosync/internal/model"
)

// Google task status values.
const (
	statusNeedsAction = "needsAction"
	statusCompleted   = "completed"
)

// Google lists have no color; it rides along in the title as " [#rrggbb]".
var colorTag = regexp.MustCompile(` \[(#[0-9a-fA-F]{6})\]$`)

// EncodeTitle appends the color tag to a list name.
func EncodeTitle(name, color string) string {
	if color == "" {
		return name
	}
	return name + " [" + color + "]"
}

// DecodeTitle splits a list title into name and color.
// Untagged titles get the default color.
func DecodeTitle(title string) (name, color string) {
	m := colorTag.FindStringSubmatchIndex(title)
	if m == nil {
		return title, model.DefaultColor
	}
	return title[:m[0]], title[m[2]:m[3]]
}

func toGoogleStatus(s model.Status) string {
	if s == model.StatusCompleted {
		return statusCompleted
	}
	return statusNeedsAction
}

func fromGoogleStatus(s string) model.Status {
	if s == statusCompleted {
		return model.StatusCompleted
	}
	return model.StatusPending
}
