package sqlitestore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"todosync/internal/backend/sqlitestore"
	"todosync/internal/gateway"
	"todosync/internal/model"
)

func openStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	s, err := sqlitestore.Open(context.Background(), filepath.Join(t.TempDir(), "db", "todosync.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func signUp(t *testing.T, s *sqlitestore.Store, email string) (model.Session, gateway.Gateway) {
	t.Helper()
	ctx := context.Background()
	sess, err := s.Register(ctx, email, "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	gw, err := s.Bind(ctx, sess)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return sess, gw
}

func TestAccounts(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	sess, _ := signUp(t, s, "Ann@Example.com")
	if sess.Email != "ann@example.com" || !sess.Valid() {
		t.Errorf("unexpected session %+v", sess)
	}

	if _, err := s.Register(ctx, "ann@example.com", "secret2"); !model.IsAuth(err) {
		t.Errorf("expected duplicate email rejected, got %v", err)
	}

	again, err := s.Authenticate(ctx, "ann@example.com", "secret1")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if again.UserID != sess.UserID || again.Token == sess.Token {
		t.Errorf("expected new session for same user, got %+v", again)
	}

	if _, err := s.Authenticate(ctx, "ann@example.com", "wrong-password"); !model.IsAuth(err) {
		t.Errorf("expected auth error for wrong password, got %v", err)
	}
	if _, err := s.Authenticate(ctx, "bob@example.com", "secret1"); !model.IsAuth(err) {
		t.Errorf("expected auth error for unknown user, got %v", err)
	}
}

func TestBindAndRevoke(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	sess, _ := signUp(t, s, "ann@example.com")

	forged := sess
	forged.Token = "ts_forged"
	if _, err := s.Bind(ctx, forged); !model.IsAuth(err) {
		t.Errorf("expected forged token rejected, got %v", err)
	}

	if err := s.Revoke(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Bind(ctx, sess); !model.IsAuth(err) {
		t.Errorf("expected revoked session rejected, got %v", err)
	}
}

func TestUnboundStore(t *testing.T) {
	s := openStore(t)
	if _, err := s.LoadAllLists(context.Background()); !model.IsAuth(err) {
		t.Errorf("expected auth error, got %v", err)
	}
	if _, err := s.CreateList(context.Background(), "x", model.DefaultColor); !model.IsAuth(err) {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestListAndItemLifecycle(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, gw := signUp(t, s, "ann@example.com")

	work, err := gw.CreateList(ctx, "Work", "#ff0000")
	if err != nil {
		t.Fatal(err)
	}
	groceries, err := gw.CreateList(ctx, "Groceries", model.DefaultColor)
	if err != nil {
		t.Fatal(err)
	}
	milk, err := gw.CreateItem(ctx, groceries.ID, "Milk")
	if err != nil {
		t.Fatal(err)
	}
	eggs, err := gw.CreateItem(ctx, groceries.ID, "Eggs")
	if err != nil {
		t.Fatal(err)
	}
	report, err := gw.CreateItem(ctx, work.ID, "Report")
	if err != nil {
		t.Fatal(err)
	}

	if err := gw.UpdateItemBody(ctx, milk.ID, "Oat milk"); err != nil {
		t.Fatal(err)
	}
	if err := gw.UpdateItemStatus(ctx, eggs.ID, model.StatusCompleted); err != nil {
		t.Fatal(err)
	}
	if err := gw.UpdateList(ctx, work.ID, "Office", "#0000ff"); err != nil {
		t.Fatal(err)
	}
	if err := gw.DeleteItem(ctx, report.ID); err != nil {
		t.Fatal(err)
	}

	lists, err := gw.LoadAllLists(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(lists) != 2 {
		t.Fatalf("expected 2 lists, got %d", len(lists))
	}
	if lists[0].ID != work.ID || lists[0].Name != "Office" || lists[0].Color != "#0000ff" || len(lists[0].Items) != 0 {
		t.Errorf("unexpected first list %+v", lists[0])
	}
	items := lists[1].Items
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %+v", items)
	}
	if items[0].Body != "Oat milk" || items[0].Status != model.StatusPending {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if items[1].Body != "Eggs" || items[1].Status != model.StatusCompleted {
		t.Errorf("unexpected second item %+v", items[1])
	}

	if err := gw.DeleteList(ctx, groceries.ID); err != nil {
		t.Fatal(err)
	}
	if err := gw.UpdateItemBody(ctx, milk.ID, "x"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected items deleted with list, got %v", err)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, ann := signUp(t, s, "ann@example.com")
	_, bob := signUp(t, s, "bob@example.com")

	l, err := ann.CreateList(ctx, "Private", model.DefaultColor)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bob.CreateItem(ctx, l.ID, "sneaky"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found for foreign list, got %v", err)
	}
	if err := bob.DeleteList(ctx, l.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found for foreign list, got %v", err)
	}
	lists, err := bob.LoadAllLists(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(lists) != 0 {
		t.Errorf("expected no lists for bob, got %+v", lists)
	}
}
