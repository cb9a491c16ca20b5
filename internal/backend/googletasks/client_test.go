package googletasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"

	"todosync/internal/backend/googletasks"
	"todosync/internal/model"
)

// fakeTasksAPI serves the subset of the Tasks REST API the client uses.
type fakeTasksAPI struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]map[string]any
}

func (f *fakeTasksAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.requests = append(f.requests, key)
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		if json.Unmarshal(data, &body) == nil {
			f.bodies[key] = body
		}
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch key {
	case "GET /tasks/v1/users/@me/lists":
		io.WriteString(w, `{"items":[{"id":"L1","title":"Work [#ff0000]"},{"id":"L2","title":"Home"}]}`)
	case "GET /tasks/v1/lists/L1/tasks":
		io.WriteString(w, `{"items":[
			{"id":"T2","title":"second","status":"completed","position":"00000000000000000001"},
			{"id":"T1","title":"first","status":"needsAction","position":"00000000000000000000"}]}`)
	case "GET /tasks/v1/lists/L2/tasks":
		io.WriteString(w, `{}`)
	case "POST /tasks/v1/lists/L1/tasks":
		io.WriteString(w, `{"id":"T3","title":"third","status":"needsAction"}`)
	case "PATCH /tasks/v1/lists/L1/tasks/T1":
		io.WriteString(w, `{"id":"T1"}`)
	case "POST /tasks/v1/users/@me/lists":
		io.WriteString(w, `{"id":"L3","title":"Groceries [#4fc33f]"}`)
	case "DELETE /tasks/v1/users/@me/lists/L2":
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"code":404,"message":"Not Found"}}`)
	case "DELETE /tasks/v1/lists/L1/tasks/T2":
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`)
	default:
		w.WriteHeader(http.StatusNotImplemented)
		io.WriteString(w, `{"error":{"code":501,"message":"unexpected `+key+`"}}`)
	}
}

func (f *fakeTasksAPI) body(key string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func newClient(t *testing.T) (*googletasks.Client, *fakeTasksAPI) {
	t.Helper()
	api := &fakeTasksAPI{bodies: make(map[string]map[string]any)}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := googletasks.NewWithHTTPClient(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}
	return c, api
}

func TestLoadAllLists(t *testing.T) {
	c, _ := newClient(t)

	lists, err := c.LoadAllLists(context.Background())
	if err != nil {
		t.Fatalf("LoadAllLists: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("expected 2 lists, got %d", len(lists))
	}
	if lists[0].Name != "Work" || lists[0].Color != "#ff0000" {
		t.Errorf("expected Work #ff0000, got %q %q", lists[0].Name, lists[0].Color)
	}
	if lists[1].Name != "Home" || lists[1].Color != model.DefaultColor {
		t.Errorf("expected Home with default color, got %q %q", lists[1].Name, lists[1].Color)
	}

	items := lists[0].Items
	if len(items) != 2 || items[0].ID != "T1" || items[1].ID != "T2" {
		t.Fatalf("expected tasks in position order, got %+v", items)
	}
	if items[0].Status != model.StatusPending || items[1].Status != model.StatusCompleted {
		t.Errorf("unexpected statuses %s %s", items[0].Status, items[1].Status)
	}
	if len(lists[1].Items) != 0 {
		t.Errorf("expected empty list, got %+v", lists[1].Items)
	}
}

func TestCreateList(t *testing.T) {
	c, api := newClient(t)

	l, err := c.CreateList(context.Background(), "Groceries", "#4fc33f")
	if err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	if l.ID != "L3" || l.Name != "Groceries" || l.Color != "#4fc33f" {
		t.Errorf("unexpected list %+v", l)
	}
	if got := api.body("POST /tasks/v1/users/@me/lists")["title"]; got != "Groceries [#4fc33f]" {
		t.Errorf("expected tagged title, got %v", got)
	}
}

func TestItemCallsUseOwningList(t *testing.T) {
	c, api := newClient(t)
	ctx := context.Background()

	if _, err := c.LoadAllLists(ctx); err != nil {
		t.Fatal(err)
	}

	item, err := c.CreateItem(ctx, "L1", "third")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.ID != "T3" || item.Status != model.StatusPending {
		t.Errorf("unexpected item %+v", item)
	}

	if err := c.UpdateItemStatus(ctx, "T1", model.StatusCompleted); err != nil {
		t.Fatalf("UpdateItemStatus: %v", err)
	}
	if got := api.body("PATCH /tasks/v1/lists/L1/tasks/T1")["status"]; got != "completed" {
		t.Errorf("expected completed, got %v", got)
	}

	err = c.UpdateItemBody(ctx, "unknown", "x")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found for unindexed task, got %v", err)
	}
}

func TestErrorMapping(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()
	if _, err := c.LoadAllLists(ctx); err != nil {
		t.Fatal(err)
	}

	if err := c.DeleteList(ctx, "L2"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	err := c.DeleteItem(ctx, "T2")
	if !model.IsAuth(err) || !strings.Contains(err.Error(), "todosync login") {
		t.Errorf("expected auth error pointing at login, got %v", err)
	}
}

func TestAuthenticate_PointsToOAuth(t *testing.T) {
	c, _ := newClient(t)
	_, err := c.Authenticate(context.Background(), "a@b.c", "secret1")
	if !model.IsAuth(err) {
		t.Errorf("expected auth error, got %v", err)
	}
}
