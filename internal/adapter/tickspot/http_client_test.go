package tickspot

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickspot-scraper/internal/domain"
)

type reply struct {
	status int
	body   string
}

// fakeAPI serves canned replies keyed by API method and records the forms
// it receives.
type fakeAPI struct {
	mu      sync.Mutex
	replies map[string]reply
	forms   map[string]url.Values
	hits    int
}

func newFakeAPI(t *testing.T, replies map[string]reply) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{replies: replies, forms: map[string]url.Values{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if !assert.NoError(t, r.ParseForm()) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		method := filepath.Base(r.URL.Path)

		api.mu.Lock()
		api.hits++
		api.forms[method] = r.PostForm
		rep, ok := api.replies[method]
		api.mu.Unlock()

		if !ok {
			rep = reply{status: http.StatusNotFound, body: "Not Found"}
		}
		w.WriteHeader(rep.status)
		_, _ = io.WriteString(w, rep.body)
	}))
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	creds := Credentials{Subdomain: "mycompany", Email: "myemail", Password: "mypassword"}
	return NewClient(creds, log, WithBaseURL(srv.URL)), api
}

func (a *fakeAPI) form(method string) url.Values {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.forms[method]
}

func (a *fakeAPI) hitCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name+".xml"))
	require.NoError(t, err)
	return string(b)
}

// capture returns a callback and a function that waits for its single
// invocation.
func capture[T any](t *testing.T) (func(T, error), func() (T, error)) {
	t.Helper()
	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, 2)
	cb := func(v T, err error) { ch <- outcome{v, err} }
	wait := func() (T, error) {
		select {
		case o := <-ch:
			select {
			case <-ch:
				t.Fatal("callback invoked more than once")
			case <-time.After(20 * time.Millisecond):
			}
			return o.v, o.err
		case <-time.After(5 * time.Second):
			t.Fatal("callback never invoked")
		}
		var zero T
		return zero, nil
	}
	return cb, wait
}

func TestNewClientDerivesHost(t *testing.T) {
	c := NewClient(Credentials{Subdomain: "mycompany"}, nil)
	assert.Equal(t, "https://mycompany.tickspot.com", c.baseURL)
}

func TestRequestAddsCredentials(t *testing.T) {
	c, api := newFakeAPI(t, map[string]reply{"testAuth": {201, "<foo />"}})

	tree, err := c.Request(context.Background(), "testAuth", url.Values{"password": {"hijack"}}).Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": ""}, tree)

	form := api.form("testAuth")
	assert.Equal(t, "myemail", form.Get("email"))
	assert.Equal(t, "mypassword", form.Get("password"))
}

func TestRequestRejectsBadStatus(t *testing.T) {
	c, _ := newFakeAPI(t, map[string]reply{"bad": {400, "Bad Request"}})
	cb, wait := capture[map[string]any](t)

	_, err := c.Request(context.Background(), "bad", nil, cb).Result()
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 400, terr.Status)

	v, cbErr := wait()
	assert.Nil(t, v)
	assert.Same(t, err, cbErr)
}

func TestRequestRejectsUnparseableXML(t *testing.T) {
	c, _ := newFakeAPI(t, map[string]reply{"notXML": {201, "foo"}})

	_, err := c.Request(context.Background(), "notXML", nil).Result()
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestRequestEmptyBodyResolvesWithoutValue(t *testing.T) {
	c, _ := newFakeAPI(t, map[string]reply{"clients": {201, ""}})
	cb, wait := capture[[]domain.Client](t)

	clients, err := c.Clients(context.Background(), ClientsQuery{}, cb).Result()
	require.NoError(t, err)
	assert.Nil(t, clients)

	v, cbErr := wait()
	assert.NoError(t, cbErr)
	assert.Nil(t, v)
}

func TestClientsSingleResolvesSlice(t *testing.T) {
	c, _ := newFakeAPI(t, map[string]reply{
		"clients": {201, `<clients><client><id>1</id><name>A</name></client></clients>`},
	})

	clients, err := c.Clients(context.Background(), ClientsQuery{}).Result()
	require.NoError(t, err)
	assert.Equal(t, []domain.Client{{ID: 1, Name: "A"}}, clients)
}

func TestClientsFixtures(t *testing.T) {
	for name, want := range map[string]int{"clients-single": 1, "clients-multiple": 2} {
		c, _ := newFakeAPI(t, map[string]reply{"clients": {201, fixture(t, name)}})
		clients, err := c.Clients(context.Background(), ClientsQuery{}).Result()
		require.NoError(t, err, name)
		assert.Len(t, clients, want, name)
		assert.Equal(t, int64(12341), clients[0].ID)
		assert.Equal(t, "Starfleet Command", clients[0].Name)
	}
}

func TestClientsSendsOpenFlag(t *testing.T) {
	c, api := newFakeAPI(t, map[string]reply{"clients": {201, fixture(t, "clients-single")}})
	open := true

	_, err := c.Clients(context.Background(), ClientsQuery{Open: &open}).Result()
	require.NoError(t, err)
	assert.Equal(t, "true", api.form("clients").Get("open"))
}

func TestClientsCallbackMatchesFuture(t *testing.T) {
	c, _ := newFakeAPI(t, map[string]reply{"clients": {201, fixture(t, "clients-multiple")}})
	cb, wait := capture[[]domain.Client](t)

	fromFuture, err := c.Clients(context.Background(), ClientsQuery{}, cb).Await(context.Background())
	require.NoError(t, err)

	fromCallback, cbErr := wait()
	require.NoError(t, cbErr)
	assert.Equal(t, fromFuture, fromCallback)
}

func TestProjectsDecodesFields(t *testing.T) {
	c, _ := newFakeAPI(t, map[string]reply{"projects": {201, fixture(t, "projects-single")}})

	f, err := c.Projects(context.Background(), ProjectsQuery{})
	require.NoError(t, err)
	projects, err := f.Result()
	require.NoError(t, err)
	require.Len(t, projects, 1)

	p := projects[0]
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Starfleet Command", p.ClientName)
	assert.True(t, p.Budget.Equal(decimal.NewFromInt(50)))
	assert.True(t, p.SumHours.Equal(decimal.RequireFromString("22.5")))
	assert.Equal(t, 2, p.UserCount)
	assert.Equal(t, time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC), p.OpenedOn)
	assert.True(t, p.ClosedOn.IsZero())
	assert.Equal(t, 2008, p.LastModifiedOn.Year())
	require.Len(t, p.Tasks, 1)
	assert.True(t, p.Tasks[0].Billable)
}

func TestProjectsMultiple(t *testing.T) {
	c, api := newFakeAPI(t, map[string]reply{"projects": {201, fixture(t, "projects-multiple")}})
	billable := false

	f, err := c.Projects(context.Background(), ProjectsQuery{ProjectID: 7, Billable: &billable})
	require.NoError(t, err)
	projects, err := f.Result()
	require.NoError(t, err)
	assert.Len(t, projects, 2)

	form := api.form("projects")
	assert.Equal(t, "7", form.Get("project_id"))
	assert.Equal(t, "false", form.Get("project_billable"))
	assert.False(t, form.Has("open"))
}

func TestProjectsRejectsNonNumericID(t *testing.T) {
	c, api := newFakeAPI(t, nil)

	f, err := c.Projects(context.Background(), ProjectsQuery{ProjectID: "7"})
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Nil(t, f)
	assert.Zero(t, api.hitCount())
}

func TestTasksRequiresProjectID(t *testing.T) {
	c, api := newFakeAPI(t, nil)
	called := false

	f, err := c.Tasks(context.Background(), nil, TasksQuery{}, func([]domain.Task, error) { called = true })
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "project_id", argErr.Field)
	assert.Nil(t, f)
	assert.False(t, called)
	assert.Zero(t, api.hitCount())
}

func TestTasksAcceptsZeroProjectID(t *testing.T) {
	for name, want := range map[string]int{"tasks-single": 1, "tasks-multiple": 2} {
		c, api := newFakeAPI(t, map[string]reply{"tasks": {201, fixture(t, name)}})

		f, err := c.Tasks(context.Background(), 0, TasksQuery{})
		require.NoError(t, err)
		tasks, err := f.Result()
		require.NoError(t, err, name)
		assert.Len(t, tasks, want, name)
		assert.Equal(t, "0", api.form("tasks").Get("project_id"))
	}
}

func TestClientsProjectsTasksNested(t *testing.T) {
	c, _ := newFakeAPI(t, map[string]reply{"clients_projects_tasks": {201, fixture(t, "clients-projects-tasks")}})

	clients, err := c.ClientsProjectsTasks(context.Background()).Result()
	require.NoError(t, err)
	require.Len(t, clients, 3)
	require.Len(t, clients[0].Projects, 2)
	assert.Len(t, clients[0].Projects[0].Tasks, 2)
	assert.Len(t, clients[0].Projects[1].Tasks, 1)
	require.Len(t, clients[1].Projects, 1)
	assert.Empty(t, clients[1].Projects[0].Tasks)
	assert.Empty(t, clients[2].Projects)
}

func TestClientsProjectsTasksSingleAtEveryLevel(t *testing.T) {
	c, _ := newFakeAPI(t, map[string]reply{"clients_projects_tasks": {201, fixture(t, "clients-projects-tasks-single")}})

	clients, err := c.ClientsProjectsTasks(context.Background()).Result()
	require.NoError(t, err)
	require.Len(t, clients, 1)
	require.Len(t, clients[0].Projects, 1)
	require.Len(t, clients[0].Projects[0].Tasks, 1)
	assert.Equal(t, "Remove converter assembly", clients[0].Projects[0].Tasks[0].Name)
}

func TestRecentTasks(t *testing.T) {
	c, _ := newFakeAPI(t, map[string]reply{"recent_tasks": {200, fixture(t, "tasks-single")}})

	tasks, err := c.RecentTasks(context.Background()).Result()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(7), tasks[0].ProjectID)
}

func TestEntriesSendsUpdatedAtWithoutEndDate(t *testing.T) {
	c, api := newFakeAPI(t, map[string]reply{"entries": {201, "<entries></entries>"}})

	f, err := c.Entries(context.Background(), "2013-01-01", nil, EntriesQuery{})
	require.NoError(t, err)
	entries, err := f.Result()
	require.NoError(t, err)
	assert.Empty(t, entries)

	form := api.form("entries")
	assert.Equal(t, "2013-01-01", form.Get("updated_at"))
	assert.False(t, form.Has("start_date"))
	assert.False(t, form.Has("end_date"))
}

func TestEntriesSendsStartAndEndDate(t *testing.T) {
	c, api := newFakeAPI(t, map[string]reply{"entries": {201, fixture(t, "entries-single")}})

	f, err := c.Entries(context.Background(),
		time.Date(2013, time.January, 1, 0, 0, 0, 0, time.UTC), "2013-01-31",
		EntriesQuery{UserEmail: "scotty@enterprise.com", TaskID: int64(14)})
	require.NoError(t, err)
	entries, err := f.Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	form := api.form("entries")
	assert.Equal(t, "2013-01-01", form.Get("start_date"))
	assert.Equal(t, "2013-01-31", form.Get("end_date"))
	assert.Equal(t, "14", form.Get("task_id"))
	assert.Equal(t, "scotty@enterprise.com", form.Get("user_email"))
	assert.False(t, form.Has("updated_at"))

	e := entries[0]
	assert.Equal(t, int64(24), e.ID)
	assert.True(t, e.Hours.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "Had trouble with tribbles.", e.Notes)
	assert.True(t, e.Billable)
	assert.False(t, e.Billed)
	assert.Equal(t, time.Date(2008, 3, 8, 0, 0, 0, 0, time.UTC), e.Date)
}

func TestEntriesValidatesDates(t *testing.T) {
	c, api := newFakeAPI(t, nil)

	_, err := c.Entries(context.Background(), nil, nil, EntriesQuery{})
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "start_date", argErr.Field)

	_, err = c.Entries(context.Background(), time.Now(), map[string]any{}, EntriesQuery{})
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "end_date", argErr.Field)

	assert.Zero(t, api.hitCount())
}

func TestUsers(t *testing.T) {
	c, api := newFakeAPI(t, map[string]reply{"users": {201, fixture(t, "users-multiple")}})

	f, err := c.Users(context.Background(), UsersQuery{ProjectID: 7})
	require.NoError(t, err)
	users, err := f.Result()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Montgomery", users[0].FirstName)
	assert.Equal(t, "uhura@enterprise.com", users[1].Email)
	assert.Equal(t, "7", api.form("users").Get("project_id"))
}

func TestCreateEntry(t *testing.T) {
	c, api := newFakeAPI(t, map[string]reply{"create_entry": {201, fixture(t, "entry")}})
	cb, wait := capture[*domain.Entry](t)

	f, err := c.CreateEntry(context.Background(), 14, 1.5,
		time.Date(2008, time.March, 8, 0, 0, 0, 0, time.UTC), "Replaced the converter.", cb)
	require.NoError(t, err)
	entry, err := f.Result()
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(25), entry.ID)
	assert.True(t, entry.Hours.Equal(decimal.RequireFromString("1.5")))

	fromCallback, cbErr := wait()
	require.NoError(t, cbErr)
	assert.Same(t, entry, fromCallback)

	form := api.form("create_entry")
	assert.Equal(t, "14", form.Get("task_id"))
	assert.Equal(t, "1.5", form.Get("hours"))
	assert.Equal(t, "2008-03-08", form.Get("date"))
	assert.Equal(t, "Replaced the converter.", form.Get("notes"))
}

func TestCreateEntryValidatesArguments(t *testing.T) {
	c, api := newFakeAPI(t, nil)
	ctx := context.Background()

	_, err := c.CreateEntry(ctx, "14", 1, "2008-03-08", "")
	assert.EqualError(t, err, "task_id is not numerical")
	_, err = c.CreateEntry(ctx, 14, "1", "2008-03-08", "")
	assert.EqualError(t, err, "hours is not numerical")
	_, err = c.CreateEntry(ctx, 14, 1, 20080308, "")
	assert.EqualError(t, err, "date is not a date")
	assert.Zero(t, api.hitCount())
}

func TestUpdateEntry(t *testing.T) {
	c, api := newFakeAPI(t, map[string]reply{"update_entry": {200, fixture(t, "entry")}})
	billed := true
	notes := ""

	f, err := c.UpdateEntry(context.Background(), 25, EntryUpdate{Hours: 2, Billed: &billed, Notes: &notes})
	require.NoError(t, err)
	entry, err := f.Result()
	require.NoError(t, err)
	require.NotNil(t, entry)

	form := api.form("update_entry")
	assert.Equal(t, "25", form.Get("id"))
	assert.Equal(t, "2", form.Get("hours"))
	assert.Equal(t, "true", form.Get("billed"))
	assert.True(t, form.Has("notes"))
	assert.False(t, form.Has("date"))
	assert.False(t, form.Has("task_id"))
}

func TestUpdateEntryNoContent(t *testing.T) {
	c, _ := newFakeAPI(t, map[string]reply{"update_entry": {204, ""}})

	f, err := c.UpdateEntry(context.Background(), 25, EntryUpdate{})
	require.NoError(t, err)
	entry, err := f.Result()
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestUpdateEntryRequiresID(t *testing.T) {
	c, _ := newFakeAPI(t, nil)

	_, err := c.UpdateEntry(context.Background(), nil, EntryUpdate{})
	assert.EqualError(t, err, "id is not numerical")
}

func TestListEntriesAwaits(t *testing.T) {
	c, api := newFakeAPI(t, map[string]reply{"entries": {201, fixture(t, "entries-single")}})
	from := time.Date(2008, time.March, 1, 0, 0, 0, 0, time.UTC)

	entries, err := c.ListEntries(context.Background(), from, from.AddDate(0, 0, 14))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "2008-03-15", api.form("entries").Get("end_date"))
}

func TestConcurrentCallsShareClient(t *testing.T) {
	c, api := newFakeAPI(t, map[string]reply{
		"clients": {201, fixture(t, "clients-multiple")},
		"users":   {201, fixture(t, "users-multiple")},
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			clients, err := c.Clients(context.Background(), ClientsQuery{}).Result()
			assert.NoError(t, err)
			assert.Len(t, clients, 2)
		}()
		go func() {
			defer wg.Done()
			users, err := c.ListUsers(context.Background())
			assert.NoError(t, err)
			assert.Len(t, users, 2)
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, api.hitCount())
}
