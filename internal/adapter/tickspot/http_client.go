package tickspot

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tickspot-scraper/internal/domain"
	"tickspot-scraper/internal/future"
)

// Transport posts a form to target and reports the reply. A non-nil error
// means no usable reply was received.
type Transport interface {
	PostForm(ctx context.Context, target string, form url.Values) (status int, body []byte, err error)
}

type httpTransport struct {
	http *http.Client
}

// NewHTTPTransport returns the default Transport: form POSTs over an
// *http.Client with the given overall timeout.
func NewHTTPTransport(timeout time.Duration) Transport {
	return httpTransport{http: &http.Client{Timeout: timeout}}
}

func (t httpTransport) PostForm(ctx context.Context, target string, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/xml")

	resp, err := t.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, body, err
	}
	return resp.StatusCode, body, nil
}

// Client talks to the Tickspot v1 API (https://<subdomain>.tickspot.com/api).
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	baseURL   string
	creds     Credentials
	transport Transport
	log       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the host derived from the subdomain.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTransport replaces the default HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

func NewClient(creds Credentials, log *slog.Logger, opts ...Option) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		baseURL:   "https://" + creds.Subdomain + ".tickspot.com",
		creds:     creds,
		transport: NewHTTPTransport(30 * time.Second),
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request calls an API method and resolves with the normalized response
// tree, or nil when the service answered without a body.
func (c *Client) Request(ctx context.Context, method string, params url.Values, done ...future.Callback[map[string]any]) *future.Future[map[string]any] {
	form := buildForm(c.creds, params)
	target := c.baseURL + "/api/" + method
	return future.Go(func() (map[string]any, error) {
		start := time.Now()
		status, body, err := c.transport.PostForm(ctx, target, form)
		c.log.Debug("tickspot api call",
			slog.String("method", method),
			slog.Int("status", status),
			slog.Duration("dur", time.Since(start)),
		)
		return parseResponse(status, body, err)
	}, done...)
}

// list resolves with the typed items of tree[container][tag].
func list[T any](ctx context.Context, c *Client, method string, params url.Values, container, tag string, done []future.Callback[[]T]) *future.Future[[]T] {
	return future.Then(c.Request(ctx, method, params), func(tree map[string]any) ([]T, error) {
		if tree == nil {
			return nil, nil
		}
		var out []T
		if err := decode(collection(tree, container, tag), &out); err != nil {
			return nil, err
		}
		return out, nil
	}, done...)
}

// single resolves with the typed element tree[tag].
func single[T any](ctx context.Context, c *Client, method string, params url.Values, tag string, done []future.Callback[*T]) *future.Future[*T] {
	return future.Then(c.Request(ctx, method, params), func(tree map[string]any) (*T, error) {
		node, ok := tree[tag]
		if !ok {
			return nil, nil
		}
		out := new(T)
		if err := decode(node, out); err != nil {
			return nil, err
		}
		return out, nil
	}, done...)
}

// ClientsQuery filters the clients call. Zero fields are omitted.
type ClientsQuery struct {
	Open *bool
}

// Clients lists the account's clients.
func (c *Client) Clients(ctx context.Context, q ClientsQuery, done ...future.Callback[[]domain.Client]) *future.Future[[]domain.Client] {
	params := url.Values{}
	setFlag(params, "open", q.Open)
	return list(ctx, c, "clients", params, "clients", "client", done)
}

// ProjectsQuery filters the projects call. ProjectID, when set, must be
// numeric.
type ProjectsQuery struct {
	ProjectID any
	Open      *bool
	Billable  *bool
}

func (c *Client) Projects(ctx context.Context, q ProjectsQuery, done ...future.Callback[[]domain.Project]) (*future.Future[[]domain.Project], error) {
	params := url.Values{}
	if err := setNumber(params, "project_id", q.ProjectID); err != nil {
		return nil, err
	}
	setFlag(params, "open", q.Open)
	setFlag(params, "project_billable", q.Billable)
	return list(ctx, c, "projects", params, "projects", "project", done), nil
}

type TasksQuery struct {
	TaskID   any
	Open     *bool
	Billable *bool
}

// Tasks lists the tasks of one project. projectID is required and must be
// numeric; zero is a valid id.
func (c *Client) Tasks(ctx context.Context, projectID any, q TasksQuery, done ...future.Callback[[]domain.Task]) (*future.Future[[]domain.Task], error) {
	id, err := requireNumber(projectID, "project_id")
	if err != nil {
		return nil, err
	}
	params := url.Values{"project_id": {id}}
	if err := setNumber(params, "task_id", q.TaskID); err != nil {
		return nil, err
	}
	setFlag(params, "open", q.Open)
	setFlag(params, "task_billable", q.Billable)
	return list(ctx, c, "tasks", params, "tasks", "task", done), nil
}

// ClientsProjectsTasks returns every open client with its open projects and
// their open tasks nested inside.
func (c *Client) ClientsProjectsTasks(ctx context.Context, done ...future.Callback[[]domain.Client]) *future.Future[[]domain.Client] {
	return list(ctx, c, "clients_projects_tasks", url.Values{}, "clients", "client", done)
}

// RecentTasks lists the tasks the user has logged time against recently.
func (c *Client) RecentTasks(ctx context.Context, done ...future.Callback[[]domain.Task]) *future.Future[[]domain.Task] {
	return list(ctx, c, "recent_tasks", url.Values{}, "tasks", "task", done)
}

// EntriesQuery narrows the entries call. Id fields, when set, must be
// numeric.
type EntriesQuery struct {
	UserID    any
	UserEmail string
	ClientID  any
	ProjectID any
	TaskID    any
	Billable  *bool
	Billed    *bool
}

// Entries lists time entries. With a nil end the call returns entries
// updated since start; otherwise entries dated between start and end.
// start and end may be a time.Time or an already formatted date string.
func (c *Client) Entries(ctx context.Context, start, end any, q EntriesQuery, done ...future.Callback[[]domain.Entry]) (*future.Future[[]domain.Entry], error) {
	from, err := wireDate(start, "start_date")
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	if end == nil {
		params.Set("updated_at", from)
	} else {
		to, err := wireDate(end, "end_date")
		if err != nil {
			return nil, err
		}
		params.Set("start_date", from)
		params.Set("end_date", to)
	}
	for key, v := range map[string]any{
		"user_id":    q.UserID,
		"client_id":  q.ClientID,
		"project_id": q.ProjectID,
		"task_id":    q.TaskID,
	} {
		if err := setNumber(params, key, v); err != nil {
			return nil, err
		}
	}
	if q.UserEmail != "" {
		params.Set("user_email", q.UserEmail)
	}
	setFlag(params, "entry_billable", q.Billable)
	setFlag(params, "billed", q.Billed)
	return list(ctx, c, "entries", params, "entries", "entry", done), nil
}

type UsersQuery struct {
	ProjectID any
}

// Users lists the account's users, optionally only those on one project.
func (c *Client) Users(ctx context.Context, q UsersQuery, done ...future.Callback[[]domain.User]) (*future.Future[[]domain.User], error) {
	params := url.Values{}
	if err := setNumber(params, "project_id", q.ProjectID); err != nil {
		return nil, err
	}
	return list(ctx, c, "users", params, "users", "user", done), nil
}

// CreateEntry logs hours against a task on date. notes may be empty.
func (c *Client) CreateEntry(ctx context.Context, taskID, hours, date any, notes string, done ...future.Callback[*domain.Entry]) (*future.Future[*domain.Entry], error) {
	task, err := requireNumber(taskID, "task_id")
	if err != nil {
		return nil, err
	}
	h, err := requireNumber(hours, "hours")
	if err != nil {
		return nil, err
	}
	d, err := wireDate(date, "date")
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"task_id": {task},
		"hours":   {h},
		"date":    {d},
	}
	if notes != "" {
		params.Set("notes", notes)
	}
	return single(ctx, c, "create_entry", params, "entry", done), nil
}

// EntryUpdate lists the fields to change on an entry. Nil fields are left
// as they are.
type EntryUpdate struct {
	Hours  any
	Date   any
	Billed *bool
	TaskID any
	UserID any
	Notes  *string
}

func (c *Client) UpdateEntry(ctx context.Context, id any, u EntryUpdate, done ...future.Callback[*domain.Entry]) (*future.Future[*domain.Entry], error) {
	entryID, err := requireNumber(id, "id")
	if err != nil {
		return nil, err
	}
	params := url.Values{"id": {entryID}}
	if err := setNumber(params, "hours", u.Hours); err != nil {
		return nil, err
	}
	if u.Date != nil {
		d, err := wireDate(u.Date, "date")
		if err != nil {
			return nil, err
		}
		params.Set("date", d)
	}
	if err := setNumber(params, "task_id", u.TaskID); err != nil {
		return nil, err
	}
	if err := setNumber(params, "user_id", u.UserID); err != nil {
		return nil, err
	}
	setFlag(params, "billed", u.Billed)
	if u.Notes != nil {
		params.Set("notes", *u.Notes)
	}
	return single(ctx, c, "update_entry", params, "entry", done), nil
}

// ListEntries fetches entries dated within [from, to].
func (c *Client) ListEntries(ctx context.Context, from, to time.Time) ([]domain.Entry, error) {
	f, err := c.Entries(ctx, from, to, EntriesQuery{})
	if err != nil {
		return nil, err
	}
	return f.Await(ctx)
}

// ListClientsProjectsTasks fetches the open client/project/task tree.
func (c *Client) ListClientsProjectsTasks(ctx context.Context) ([]domain.Client, error) {
	return c.ClientsProjectsTasks(ctx).Await(ctx)
}

// ListUsers fetches every user on the account.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	f, err := c.Users(ctx, UsersQuery{})
	if err != nil {
		return nil, err
	}
	return f.Await(ctx)
}

// setNumber adds key when v is non-nil; a non-numeric v is an ArgumentError.
func setNumber(params url.Values, key string, v any) error {
	if v == nil {
		return nil
	}
	s, err := requireNumber(v, key)
	if err != nil {
		return err
	}
	params.Set(key, s)
	return nil
}

func setFlag(params url.Values, key string, v *bool) {
	if v != nil {
		params.Set(key, flag(*v))
	}
}
