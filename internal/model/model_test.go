package model_test

import (
	"errors"
	"fmt"
	"testing"

	"todosync/internal/model"
)

func TestID_Kinds(t *testing.T) {
	tests := []struct {
		id          model.ID
		local       bool
		pending     bool
		placeholder bool
	}{
		{"-1", true, false, true},
		{"-2", true, true, false},
		{"-17", true, true, false},
		{"0190a1b2-uuid", false, false, false},
		{"-abc", false, false, false},
		{"MTIzNDU2", false, false, false},
	}
	for _, tt := range tests {
		if got := tt.id.IsLocal(); got != tt.local {
			t.Errorf("%s.IsLocal(): expected %v, got %v", tt.id, tt.local, got)
		}
		if got := tt.id.IsPending(); got != tt.pending {
			t.Errorf("%s.IsPending(): expected %v, got %v", tt.id, tt.pending, got)
		}
		if got := tt.id.IsPlaceholder(); got != tt.placeholder {
			t.Errorf("%s.IsPlaceholder(): expected %v, got %v", tt.id, tt.placeholder, got)
		}
	}
}

func TestStatus_Toggle(t *testing.T) {
	if model.StatusPending.Toggle() != model.StatusCompleted {
		t.Error("expected pending to toggle to completed")
	}
	if model.StatusCompleted.Toggle() != model.StatusPending {
		t.Error("expected completed to toggle to pending")
	}
}

func TestTaskList_CloneIsDeep(t *testing.T) {
	l := model.TaskList{ID: "a", Name: "A", Items: []model.TaskItem{{ID: "1", Body: "x"}}}
	c := l.Clone()
	c.Items[0].Body = "changed"
	if l.Items[0].Body != "x" {
		t.Errorf("expected original body %q, got %q", "x", l.Items[0].Body)
	}
}

func TestValidateListName(t *testing.T) {
	if err := model.ValidateListName("Groceries"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	for _, name := range []string{"", "   "} {
		err := model.ValidateListName(name)
		if !model.IsValidation(err) {
			t.Fatalf("expected validation error for %q, got %v", name, err)
		}
		if err.Error() != "name: Name Required" {
			t.Errorf("expected %q, got %q", "name: Name Required", err.Error())
		}
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		email, password string
		want            string
	}{
		{"", "secret1", "email: Email Required"},
		{"not-an-email", "secret1", "email: Enter a valid email"},
		{"a@b.co", "", "password: Password Required"},
		{"a@b.co", "12345", "password: Password Too Short"},
		{"a@b.co", "123456", ""},
	}
	for _, tt := range tests {
		err := model.ValidateCredentials(tt.email, tt.password)
		got := ""
		if err != nil {
			got = err.Error()
		}
		if got != tt.want {
			t.Errorf("ValidateCredentials(%q, %q): expected %q, got %q", tt.email, tt.password, tt.want, got)
		}
	}
}

func TestNewRemoteError_KeepsTypedErrors(t *testing.T) {
	auth := &model.AuthError{Message: "bad password"}
	if got := model.NewRemoteError("createList", auth); got != error(auth) {
		t.Errorf("expected auth error unchanged, got %v", got)
	}

	wrapped := model.NewRemoteError("deleteItem", fmt.Errorf("backend: %w", model.ErrNotFound))
	if !model.IsRemote(wrapped) {
		t.Fatalf("expected remote error, got %T", wrapped)
	}
	if !errors.Is(wrapped, model.ErrNotFound) {
		t.Error("expected remote error to unwrap to ErrNotFound")
	}
	if wrapped.Error() != "deleteItem: backend: not found" {
		t.Errorf("expected %q, got %q", "deleteItem: backend: not found", wrapped.Error())
	}

	if model.NewRemoteError("x", nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestValidateColor(t *testing.T) {
	for _, ok := range []string{"", "#4fc33f", "#ABCDEF"} {
		if err := model.ValidateColor(ok); err != nil {
			t.Errorf("expected %q valid, got %v", ok, err)
		}
	}
	for _, bad := range []string{"red", "#fff", "4fc33f", "#4fc33g"} {
		if err := model.ValidateColor(bad); !model.IsValidation(err) {
			t.Errorf("expected %q rejected, got %v", bad, err)
		}
	}
}
