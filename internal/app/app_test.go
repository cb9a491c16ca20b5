package app_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"todosync/internal/app"
	"todosync/internal/lifecycle"
	"todosync/internal/model"
	"todosync/internal/syncer"
	"todosync/internal/testutil"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestSignIn_Validation(t *testing.T) {
	fake := testutil.NewFakeGateway()
	fake.AddUser("ann@example.com", "secret1")
	a := app.New(fake)

	tests := []struct {
		email, password string
		field, message  string
	}{
		{"", "secret1", "email", "Email Required"},
		{"not-an-email", "secret1", "email", "Enter a valid email"},
		{"ann@example.com", "", "password", "Password Required"},
		{"ann@example.com", "12345", "password", "Password Too Short"},
	}
	for _, tt := range tests {
		_, err := a.SignIn(ctx(t), tt.email, tt.password)
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%q/%q: expected validation error, got %v", tt.email, tt.password, err)
			continue
		}
		if verr.Field != tt.field || verr.Message != tt.message {
			t.Errorf("expected %s %q, got %s %q", tt.field, tt.message, verr.Field, verr.Message)
		}
	}
	if calls := fake.Calls(); len(calls) != 0 {
		t.Errorf("expected no remote call, got %v", calls)
	}
}

func TestSignIn(t *testing.T) {
	fake := testutil.NewFakeGateway()
	fake.AddUser("ann@example.com", "secret1")
	a := app.New(fake)

	sess, err := a.SignIn(ctx(t), "ann@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.Email != "ann@example.com" || sess.Token == "" {
		t.Errorf("unexpected session %+v", sess)
	}

	_, err = a.SignIn(ctx(t), "ann@example.com", "wrong-password")
	if !model.IsAuth(err) {
		t.Errorf("expected auth error, got %v", err)
	}
	if a.Status().Get().Kind != syncer.Synced {
		t.Errorf("expected auth failure to leave sync state alone, got %s", a.Status().Get())
	}
}

func TestBootstrap(t *testing.T) {
	fake := testutil.NewFakeGateway()
	fake.AddList("A", "Work", "#ff0000")
	fake.AddList("B", "Home", "")
	a := app.New(fake)

	if err := a.Bootstrap(ctx(t)); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if got := a.Repository().ListIDs(); !slices.Equal(got, []model.ID{"A", "B"}) {
		t.Errorf("expected [A B], got %v", got)
	}
	sel, err := a.Controller().Selected()
	if err != nil || sel.ID != "A" {
		t.Errorf("expected A selected, got %v %v", sel.ID, err)
	}
	b, _ := a.Repository().FindList("B")
	if b.Color != model.DefaultColor || len(b.Items) != 1 || !b.Items[0].IsPlaceholder() {
		t.Errorf("expected normalized empty list, got %+v", b)
	}
	if a.Status().Get().Kind != syncer.Synced {
		t.Errorf("expected synced, got %s", a.Status().Get())
	}
}

func TestBootstrap_Failure(t *testing.T) {
	fake := testutil.NewFakeGateway()
	fake.LoadAllListsErr = errors.New("unreachable")
	a := app.New(fake)

	err := a.Bootstrap(ctx(t))
	if !model.IsRemote(err) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if a.Repository().Len() != 0 {
		t.Errorf("expected empty repository, got %d lists", a.Repository().Len())
	}
}

func TestBootstrap_EmptyStoreGetsDefaultList(t *testing.T) {
	fake := testutil.NewFakeGateway()
	var mu sync.Mutex
	var notices []string
	a := app.New(fake, app.WithNotifier(func(n lifecycle.Notice) {
		mu.Lock()
		defer mu.Unlock()
		notices = append(notices, n.Message)
	}))

	if err := a.Bootstrap(ctx(t)); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if a.Repository().Len() != 1 {
		t.Fatalf("expected one list, got %d", a.Repository().Len())
	}
	if err := a.Wait(ctx(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	remote := fake.Snapshot()
	if len(remote) != 1 || remote[0].Name != app.DefaultListName {
		t.Errorf("expected %q created remotely, got %+v", app.DefaultListName, remote)
	}
	sel, err := a.Controller().Selected()
	if err != nil || sel.ID != remote[0].ID {
		t.Errorf("expected %s selected, got %s %v", remote[0].ID, sel.ID, err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !slices.Contains(notices, lifecycle.MsgListAdded) {
		t.Errorf("expected %q notice, got %v", lifecycle.MsgListAdded, notices)
	}
}

func TestTeardown(t *testing.T) {
	fake := testutil.NewFakeGateway()
	fake.AddList("A", "Work", "")
	fake.AddList("B", "Home", "")
	fake.AddItem("A", "a1", "x", model.StatusPending)
	fake.UpdateItemStatusErr = errors.New("boom")
	a := app.New(fake)
	if err := a.Bootstrap(ctx(t)); err != nil {
		t.Fatal(err)
	}

	a.Arbiter().RequestEdit(ctx(t), "a1")
	if _, err := a.Controller().ToggleStatus(ctx(t), "a1"); err != nil {
		t.Fatal(err)
	}
	if err := a.Wait(ctx(t)); !model.IsRemote(err) {
		t.Errorf("expected remote error from Wait, got %v", err)
	}

	if err := a.Teardown(ctx(t)); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	if a.Repository().Len() != 0 {
		t.Errorf("expected cleared repository")
	}
	if !a.Arbiter().State().IsIdle() {
		t.Errorf("expected idle arbiter, got %s", a.Arbiter().State())
	}
	if a.Status().Get().Kind != syncer.Synced {
		t.Errorf("expected synced after teardown, got %s", a.Status().Get())
	}
	if a.Coordinator().LastFailure() != nil {
		t.Error("expected failure record cleared")
	}
}

func TestSubscribe(t *testing.T) {
	fake := testutil.NewFakeGateway()
	fake.AddList("A", "Work", "")
	fake.CreateItemErr = errors.New("offline")
	a := app.New(fake)
	if err := a.Bootstrap(ctx(t)); err != nil {
		t.Fatal(err)
	}

	got := make(chan lifecycle.Notice, 4)
	unsubscribe := a.Subscribe(func(n lifecycle.Notice) { got <- n })

	if _, _, err := a.Controller().CreateItem(ctx(t), "A", "milk"); err != nil {
		t.Fatal(err)
	}
	a.Wait(ctx(t))

	select {
	case n := <-got:
		expected := "Sync failed: createItem: offline"
		if n.Level != lifecycle.Error || n.Message != expected {
			t.Errorf("expected error notice %q, got %s %q", expected, n.Level, n.Message)
		}
	default:
		t.Fatal("expected a notice")
	}

	unsubscribe()
	a.Controller().CreateItem(ctx(t), "A", "eggs")
	a.Wait(ctx(t))
	if len(got) != 0 {
		t.Errorf("expected no notice after unsubscribe, got %d", len(got))
	}
}
