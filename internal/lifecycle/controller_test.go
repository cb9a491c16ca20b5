package lifecycle_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"todosync/internal/editing"
	"todosync/internal/lifecycle"
	"todosync/internal/model"
	"todosync/internal/repository"
	"todosync/internal/syncer"
	"todosync/internal/testutil"
)

type harness struct {
	fake   *testutil.FakeGateway
	repo   *repository.Repository
	status *syncer.Status
	coord  *syncer.Coordinator
	arb    *editing.Arbiter
	ctl    *lifecycle.Controller

	mu      sync.Mutex
	kinds   []syncer.Kind
	notices []lifecycle.Notice
}

func newHarness(t *testing.T, fake *testutil.FakeGateway) *harness {
	t.Helper()
	h := &harness{fake: fake, repo: repository.New(), status: syncer.NewStatus()}
	h.status.Subscribe(func(s syncer.State) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.kinds = append(h.kinds, s.Kind)
	})
	notify := func(n lifecycle.Notice) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.notices = append(h.notices, n)
	}
	h.coord = syncer.NewCoordinator(h.status, syncer.WithFailureHandler(func(m *syncer.Mutation) {
		notify(lifecycle.FailureNotice(m))
	}))
	creations := syncer.NewCreations()
	h.arb = editing.New(h.repo, h.coord, fake, creations, nil)
	h.ctl = lifecycle.New(lifecycle.Deps{
		Repo:      h.repo,
		Coord:     h.coord,
		Gateway:   fake,
		Creations: creations,
		Arbiter:   h.arb,
		Notify:    notify,
	})

	lists, err := fake.LoadAllLists(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	h.repo.ReplaceLists(lists)
	return h
}

func (h *harness) transitions() []syncer.Kind {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.kinds)
}

func (h *harness) noticeMessages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, n := range h.notices {
		out = append(out, n.Message)
	}
	return out
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.coord.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func twoLists() *testutil.FakeGateway {
	fake := testutil.NewFakeGateway()
	fake.AddList("A", "Work", "#ff0000")
	fake.AddList("B", "Home", "#00ff00")
	fake.AddItem("A", "a1", "Write report", model.StatusPending)
	return fake
}

func TestDeleteList_RemovesAndSyncs(t *testing.T) {
	h := newHarness(t, twoLists())

	if err := h.ctl.RequestDeleteList("A"); err != nil {
		t.Fatalf("RequestDeleteList: %v", err)
	}
	conf, ok := h.ctl.Confirmation()
	if !ok || conf.Kind != lifecycle.ConfirmList || conf.Label != "Work" {
		t.Fatalf("unexpected confirmation %+v (open=%v)", conf, ok)
	}

	m, err := h.ctl.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if ids := h.repo.ListIDs(); !slices.Equal(ids, []model.ID{"B"}) {
		t.Errorf("expected [B] right after confirm, got %v", ids)
	}
	h.wait(t)

	if m.Outcome() != syncer.Confirmed {
		t.Errorf("expected confirmed, got %s", m.Outcome())
	}
	want := []syncer.Kind{syncer.Syncing, syncer.Synced}
	if got := h.transitions(); !slices.Equal(got, want) {
		t.Errorf("expected transitions %v, got %v", want, got)
	}
	if remote := h.fake.Snapshot(); len(remote) != 1 || remote[0].ID != "B" {
		t.Errorf("expected only B remotely, got %+v", remote)
	}
	if _, ok := h.ctl.Confirmation(); ok {
		t.Error("expected confirmation closed")
	}
}

func TestDeleteList_SelectsNeighbour(t *testing.T) {
	h := newHarness(t, twoLists())
	if err := h.ctl.SelectList("A"); err != nil {
		t.Fatal(err)
	}
	if err := h.ctl.RequestDeleteList("A"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.ctl.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.wait(t)

	sel, err := h.ctl.Selected()
	if err != nil {
		t.Fatal(err)
	}
	if sel.ID != "B" {
		t.Errorf("expected B selected, got %s", sel.ID)
	}
}

func TestDeleteList_LastListRejected(t *testing.T) {
	fake := testutil.NewFakeGateway()
	fake.AddList("A", "Only", model.DefaultColor)
	h := newHarness(t, fake)

	err := h.ctl.RequestDeleteList("A")
	if !model.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := h.ctl.Confirmation(); ok {
		t.Error("expected no confirmation dialog")
	}
	if h.repo.Len() != 1 {
		t.Errorf("expected list kept, got %d lists", h.repo.Len())
	}
	if got := h.noticeMessages(); !slices.Equal(got, []string{lifecycle.MsgNeedOneList}) {
		t.Errorf("expected %q notice, got %v", lifecycle.MsgNeedOneList, got)
	}
	if len(h.transitions()) != 0 {
		t.Errorf("expected no sync activity, got %v", h.transitions())
	}
	if calls := h.fake.Calls(); slices.Contains(calls, "DeleteList") {
		t.Errorf("expected no remote delete, got %v", calls)
	}
}

func TestConfirm_NothingOpen(t *testing.T) {
	h := newHarness(t, twoLists())
	if _, err := h.ctl.Confirm(context.Background()); !errors.Is(err, lifecycle.ErrNothingToConfirm) {
		t.Errorf("expected ErrNothingToConfirm, got %v", err)
	}
}

func TestCancel_KeepsList(t *testing.T) {
	h := newHarness(t, twoLists())
	if err := h.ctl.RequestDeleteList("A"); err != nil {
		t.Fatal(err)
	}
	h.ctl.Cancel()
	if _, err := h.ctl.Confirm(context.Background()); !errors.Is(err, lifecycle.ErrNothingToConfirm) {
		t.Errorf("expected ErrNothingToConfirm after cancel, got %v", err)
	}
	if h.repo.Len() != 2 {
		t.Errorf("expected 2 lists, got %d", h.repo.Len())
	}
}

func TestCreateList_RoundTrip(t *testing.T) {
	h := newHarness(t, twoLists())

	pending, m, err := h.ctl.CreateList(context.Background(), "Groceries", "")
	if err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	if !pending.IsPending() {
		t.Errorf("expected pending id, got %s", pending)
	}
	local, err := h.repo.FindList(pending)
	if err != nil {
		t.Fatalf("expected list visible before confirmation: %v", err)
	}
	if len(local.Items) != 1 || !local.Items[0].IsPlaceholder() {
		t.Errorf("expected placeholder only, got %+v", local.Items)
	}
	h.wait(t)

	if m.Outcome() != syncer.Confirmed {
		t.Fatalf("expected confirmed, got %s (%v)", m.Outcome(), m.Err())
	}
	if _, err := h.repo.FindList(pending); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected pending id replaced, got %v", err)
	}
	lists := h.repo.Lists()
	last := lists[len(lists)-1]
	if last.Name != "Groceries" || last.Color != model.DefaultColor || last.ID.IsLocal() {
		t.Errorf("unexpected reconciled list %+v", last)
	}

	remote, err := h.fake.LoadAllLists(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	got := remote[len(remote)-1]
	if got.ID != last.ID || got.Name != "Groceries" || got.Color != "#4fc33f" {
		t.Errorf("expected remote %s Groceries #4fc33f, got %+v", last.ID, got)
	}
	if msgs := h.noticeMessages(); !slices.Contains(msgs, lifecycle.MsgListAdded) {
		t.Errorf("expected %q notice, got %v", lifecycle.MsgListAdded, msgs)
	}
}

func TestCreateList_InvalidName(t *testing.T) {
	h := newHarness(t, twoLists())
	_, m, err := h.ctl.CreateList(context.Background(), "   ", "")
	var verr *model.ValidationError
	if !errors.As(err, &verr) || verr.Message != "Name Required" {
		t.Fatalf("expected Name Required, got %v", err)
	}
	if m != nil || h.repo.Len() != 2 {
		t.Errorf("expected nothing applied")
	}
}

func TestCreateList_FailureNotifies(t *testing.T) {
	fake := twoLists()
	fake.CreateListErr = errors.New("quota exceeded")
	h := newHarness(t, fake)

	pending, _, err := h.ctl.CreateList(context.Background(), "Groceries", "")
	if err != nil {
		t.Fatal(err)
	}
	h.wait(t)

	if _, err := h.repo.FindList(pending); err != nil {
		t.Errorf("expected optimistic list kept after failure: %v", err)
	}
	if got := h.status.Get().Kind; got != syncer.Error {
		t.Errorf("expected error state, got %s", got)
	}
	if msgs := h.noticeMessages(); !slices.Contains(msgs, lifecycle.MsgListAddFailed) {
		t.Errorf("expected %q, got %v", lifecycle.MsgListAddFailed, msgs)
	}
}

func TestDeleteList_AfterFailedCreation(t *testing.T) {
	fake := twoLists()
	fake.CreateListErr = errors.New("offline")
	h := newHarness(t, fake)

	pending, _, err := h.ctl.CreateList(context.Background(), "Groceries", "")
	if err != nil {
		t.Fatal(err)
	}
	h.wait(t)
	fake.CreateListErr = nil

	if err := h.ctl.RequestDeleteList(pending); err != nil {
		t.Fatal(err)
	}
	m, err := h.ctl.Confirm(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	h.wait(t)

	if m.Outcome() != syncer.Confirmed {
		t.Errorf("expected delete confirmed, got %s (%v)", m.Outcome(), m.Err())
	}
	if got := h.status.Get().Kind; got != syncer.Synced {
		t.Errorf("expected synced, got %s", got)
	}
	if _, err := h.repo.FindList(pending); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected list removed locally, got %v", err)
	}
	if slices.Contains(fake.Calls(), "DeleteList") {
		t.Error("expected no remote delete for a list that was never created")
	}
}

func TestDeleteItem_AfterFailedCreation(t *testing.T) {
	fake := twoLists()
	fake.CreateItemErr = errors.New("offline")
	h := newHarness(t, fake)

	itemID, _, err := h.ctl.CreateItem(context.Background(), "B", "Temp")
	if err != nil {
		t.Fatal(err)
	}
	h.wait(t)
	fake.CreateItemErr = nil

	if err := h.ctl.RequestDeleteItem(itemID); err != nil {
		t.Fatal(err)
	}
	m, err := h.ctl.Confirm(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	h.wait(t)

	if m.Outcome() != syncer.Confirmed {
		t.Errorf("expected delete confirmed, got %s (%v)", m.Outcome(), m.Err())
	}
	if got := h.status.Get().Kind; got != syncer.Synced {
		t.Errorf("expected synced, got %s", got)
	}
	l, _ := h.repo.FindList("B")
	if len(l.Items) != 1 || !l.Items[0].IsPlaceholder() {
		t.Errorf("expected placeholder restored, got %+v", l.Items)
	}
}

func TestCreateItem_InPendingList(t *testing.T) {
	fake := twoLists()
	h := newHarness(t, fake)

	hold := fake.Hold()
	listID, _, err := h.ctl.CreateList(context.Background(), "Groceries", "")
	if err != nil {
		t.Fatal(err)
	}
	itemID, _, err := h.ctl.CreateItem(context.Background(), listID, "Milk")
	if err != nil {
		t.Fatal(err)
	}

	l, err := h.repo.FindList(listID)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Items) != 1 || l.Items[0].ID != itemID || l.Items[0].Body != "Milk" {
		t.Errorf("expected optimistic item replacing placeholder, got %+v", l.Items)
	}

	hold()
	h.wait(t)

	remote := fake.Snapshot()
	got := remote[len(remote)-1]
	if len(got.Items) != 1 || got.Items[0].Body != "Milk" {
		t.Fatalf("expected Milk created in the new remote list, got %+v", got)
	}
	item, owner, err := h.repo.FindItem(got.Items[0].ID)
	if err != nil {
		t.Fatalf("expected item reconciled to remote id: %v", err)
	}
	if owner != got.ID || item.Status != model.StatusPending {
		t.Errorf("unexpected reconciled item %+v in %s", item, owner)
	}
}

func TestDeleteItem_PendingBeforeConfirm(t *testing.T) {
	h := newHarness(t, twoLists())

	hold := h.fake.Hold()
	itemID, _, err := h.ctl.CreateItem(context.Background(), "B", "Temp")
	if err != nil {
		t.Fatal(err)
	}
	if err := h.ctl.RequestDeleteItem(itemID); err != nil {
		t.Fatal(err)
	}
	if _, err := h.ctl.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}

	l, _ := h.repo.FindList("B")
	if len(l.Items) != 1 || !l.Items[0].IsPlaceholder() {
		t.Errorf("expected placeholder restored locally, got %+v", l.Items)
	}

	hold()
	h.wait(t)

	for _, rl := range h.fake.Snapshot() {
		if rl.ID == "B" && len(rl.Items) != 0 {
			t.Errorf("expected no orphaned remote item, got %+v", rl.Items)
		}
	}
	l, _ = h.repo.FindList("B")
	if len(l.Items) != 1 || !l.Items[0].IsPlaceholder() {
		t.Errorf("expected placeholder after reconcile, got %+v", l.Items)
	}
	if got := h.status.Get().Kind; got != syncer.Synced {
		t.Errorf("expected synced, got %s", got)
	}
}

func TestDeleteItem_Placeholder(t *testing.T) {
	h := newHarness(t, twoLists())
	if err := h.ctl.RequestDeleteItem(model.PlaceholderID); !model.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDeleteItem_LastItemRestoresPlaceholder(t *testing.T) {
	h := newHarness(t, twoLists())
	if err := h.ctl.RequestDeleteItem("a1"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.ctl.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	l, _ := h.repo.FindList("A")
	if len(l.Items) != 1 || !l.Items[0].IsPlaceholder() {
		t.Errorf("expected placeholder, got %+v", l.Items)
	}
	h.wait(t)
	if calls := h.fake.Calls(); !slices.Contains(calls, "DeleteItem") {
		t.Errorf("expected remote delete, got %v", calls)
	}
}

func TestToggleStatus_FailureKeepsToggledValue(t *testing.T) {
	fake := twoLists()
	fake.UpdateItemStatusErr = errors.New("network down")
	h := newHarness(t, fake)

	m, err := h.ctl.ToggleStatus(context.Background(), "a1")
	if err != nil {
		t.Fatal(err)
	}
	h.wait(t)

	item, _, _ := h.repo.FindItem("a1")
	if item.Status != model.StatusCompleted {
		t.Errorf("expected completed kept, got %s", item.Status)
	}
	if m.Outcome() != syncer.Failed {
		t.Errorf("expected failed, got %s", m.Outcome())
	}
	state := h.status.Get()
	if state.Kind != syncer.Error {
		t.Errorf("expected error, got %s", state)
	}
	if h.coord.LastFailure() != m {
		t.Error("expected mutation recorded as last failure")
	}
	want := "Sync failed: updateItemStatus: network down"
	if msgs := h.noticeMessages(); !slices.Contains(msgs, want) {
		t.Errorf("expected %q, got %v", want, msgs)
	}
}

func TestToggleStatus_Twice(t *testing.T) {
	h := newHarness(t, twoLists())
	for range 2 {
		if _, err := h.ctl.ToggleStatus(context.Background(), "a1"); err != nil {
			t.Fatal(err)
		}
	}
	h.wait(t)
	item, _, _ := h.repo.FindItem("a1")
	if item.Status != model.StatusPending {
		t.Errorf("expected pending, got %s", item.Status)
	}
}

func TestToggleStatus_Placeholder(t *testing.T) {
	h := newHarness(t, twoLists())
	if _, err := h.ctl.ToggleStatus(context.Background(), model.PlaceholderID); !model.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateList(t *testing.T) {
	h := newHarness(t, twoLists())
	if _, err := h.ctl.UpdateList(context.Background(), "B", "House", ""); err != nil {
		t.Fatal(err)
	}
	l, _ := h.repo.FindList("B")
	if l.Name != "House" || l.Color != "#00ff00" {
		t.Errorf("unexpected list %+v", l)
	}
	h.wait(t)
	for _, rl := range h.fake.Snapshot() {
		if rl.ID == "B" && rl.Name != "House" {
			t.Errorf("expected remote rename, got %q", rl.Name)
		}
	}
}

func TestSelectIndex(t *testing.T) {
	h := newHarness(t, twoLists())
	if err := h.ctl.SelectIndex(1); err != nil {
		t.Fatal(err)
	}
	if got := h.ctl.SelectedIndex(); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if err := h.ctl.SelectIndex(5); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if len(h.fake.Calls()) != 1 {
		t.Errorf("expected selection to stay local, got %v", h.fake.Calls())
	}
}
