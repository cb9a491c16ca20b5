// Package googletasks implements gateway.Gateway on the Google Tasks API.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todosync/internal/config"
	"todosync/internal/model"
)

const (
	// PageSize is the number of lists or tasks fetched per request.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// TasksScope is the OAuth scope for Google Tasks.
	TasksScope = "https://www.googleapis.com/auth/tasks"

	// fetchConcurrency bounds parallel item fetches during LoadAllLists.
	fetchConcurrency = 4
)

// Client implements gateway.Gateway using Google Tasks API.
type Client struct {
	svc *tasks.Service

	// Task calls need the owning list id; tasks are indexed as they are seen.
	mu     sync.Mutex
	owners map[model.ID]model.ID   // task -> list
	order  map[model.ID][]model.ID // list -> tasks by position
}

// New creates a Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.OAuthClientFile, err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, TasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.OAuthClientFile, err)
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, &model.AuthError{Message: "not logged in (run: todosync login)"}
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.TokenFile, err)
	}

	// Refreshes on demand.
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))
	return NewWithHTTPClient(ctx, httpClient)
}

// NewWithHTTPClient creates a client with a custom HTTP client.
// Extra options (such as option.WithEndpoint in tests) are passed through.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{
		svc:    svc,
		owners: make(map[model.ID]model.ID),
		order:  make(map[model.ID][]model.ID),
	}, nil
}

// LoadAllLists returns every task list with its tasks. Tasks of all lists
// are fetched concurrently; list order is the API order.
func (c *Client) LoadAllLists(ctx context.Context) ([]model.TaskList, error) {
	var raw []*tasks.TaskList
	err := c.svc.Tasklists.List().MaxResults(PageSize).Pages(ctx, func(resp *tasks.TaskLists) error {
		raw = append(raw, resp.Items...)
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}

	lists := make([]model.TaskList, len(raw))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, tl := range raw {
		name, color := DecodeTitle(tl.Title)
		lists[i] = model.TaskList{ID: model.ID(tl.Id), Name: name, Color: color}
		g.Go(func() error {
			items, err := c.listItems(gctx, tl.Id)
			if err != nil {
				return fmt.Errorf("list %q: %w", name, err)
			}
			lists[i].Items = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.owners = make(map[model.ID]model.ID)
	c.order = make(map[model.ID][]model.ID)
	for _, l := range lists {
		for _, it := range l.Items {
			c.owners[it.ID] = l.ID
			c.order[l.ID] = append(c.order[l.ID], it.ID)
		}
	}
	c.mu.Unlock()
	return lists, nil
}

func (c *Client) listItems(ctx context.Context, listID string) ([]model.TaskItem, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var raw []*tasks.Task
	err := c.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			raw = append(raw, resp.Items...)
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}

	// Position strings are zero-padded and sort lexically.
	slices.SortStableFunc(raw, func(a, b *tasks.Task) int {
		return strings.Compare(a.Position, b.Position)
	})

	items := make([]model.TaskItem, 0, len(raw))
	for _, t := range raw {
		items = append(items, model.TaskItem{
			ID:     model.ID(t.Id),
			Body:   t.Title,
			Status: fromGoogleStatus(t.Status),
		})
	}
	return items, nil
}

// CreateList creates a task list with the color tagged onto its title.
func (c *Client) CreateList(ctx context.Context, name, color string) (model.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	tl, err := c.svc.Tasklists.Insert(&tasks.TaskList{Title: EncodeTitle(name, color)}).Context(ctx).Do()
	if err != nil {
		return model.TaskList{}, wrapError(err)
	}
	name, color = DecodeTitle(tl.Title)
	return model.TaskList{ID: model.ID(tl.Id), Name: name, Color: color}, nil
}

// UpdateList renames and recolors a task list.
func (c *Client) UpdateList(ctx context.Context, listID model.ID, name, color string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err := c.svc.Tasklists.Patch(string(listID), &tasks.TaskList{Title: EncodeTitle(name, color)}).Context(ctx).Do()
	return wrapError(err)
}

// DeleteList deletes a task list.
func (c *Client) DeleteList(ctx context.Context, listID model.ID) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if err := c.svc.Tasklists.Delete(string(listID)).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.order[listID] {
		delete(c.owners, item)
	}
	delete(c.order, listID)
	return nil
}

// CreateItem appends a task to a list.
func (c *Client) CreateItem(ctx context.Context, listID model.ID, body string) (model.TaskItem, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	// Insert puts new tasks first unless given a predecessor.
	call := c.svc.Tasks.Insert(string(listID), &tasks.Task{Title: body, Status: statusNeedsAction})
	if last := c.lastItem(listID); last != "" {
		call = call.Previous(string(last))
	}
	t, err := call.Context(ctx).Do()
	if err != nil {
		return model.TaskItem{}, wrapError(err)
	}

	item := model.TaskItem{ID: model.ID(t.Id), Body: t.Title, Status: fromGoogleStatus(t.Status)}
	c.mu.Lock()
	c.owners[item.ID] = listID
	c.order[listID] = append(c.order[listID], item.ID)
	c.mu.Unlock()
	return item, nil
}

// UpdateItemBody sets the title of a task.
func (c *Client) UpdateItemBody(ctx context.Context, itemID model.ID, body string) error {
	return c.patchItem(ctx, itemID, &tasks.Task{Title: body, ForceSendFields: []string{"Title"}})
}

// UpdateItemStatus marks a task completed or needing action.
func (c *Client) UpdateItemStatus(ctx context.Context, itemID model.ID, status model.Status) error {
	patch := &tasks.Task{Status: toGoogleStatus(status)}
	if status == model.StatusPending {
		patch.NullFields = []string{"Completed"}
	}
	return c.patchItem(ctx, itemID, patch)
}

func (c *Client) patchItem(ctx context.Context, itemID model.ID, patch *tasks.Task) error {
	listID, err := c.owner(itemID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err = c.svc.Tasks.Patch(string(listID), string(itemID), patch).Context(ctx).Do()
	return wrapError(err)
}

// DeleteItem deletes a task.
func (c *Client) DeleteItem(ctx context.Context, itemID model.ID) error {
	listID, err := c.owner(itemID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(string(listID), string(itemID)).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	c.mu.Lock()
	delete(c.owners, itemID)
	c.order[listID] = slices.DeleteFunc(c.order[listID], func(id model.ID) bool { return id == itemID })
	c.mu.Unlock()
	return nil
}

// Authenticate is not supported: Google accounts sign in through OAuth.
func (c *Client) Authenticate(ctx context.Context, email, password string) (model.Session, error) {
	return model.Session{}, &model.AuthError{Message: "Google accounts sign in with OAuth (run: todosync login)"}
}

func (c *Client) owner(itemID model.ID) (model.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	listID, ok := c.owners[itemID]
	if !ok {
		return "", fmt.Errorf("task %s: %w", itemID, model.ErrNotFound)
	}
	return listID, nil
}

// lastItem returns the last known task of listID, or "" for an empty list.
func (c *Client) lastItem(listID model.ID) model.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := c.order[listID]
	if len(ids) == 0 {
		return ""
	}
	return ids[len(ids)-1]
}

// wrapError maps API errors to model errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("request timed out")
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &model.AuthError{Message: "token expired or revoked (run: todosync login)"}
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", apiErr.Message, model.ErrNotFound)
		}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &model.AuthError{Message: "token expired or revoked (run: todosync login)"}
	}
	return err
}
