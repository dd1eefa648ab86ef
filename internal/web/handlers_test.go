package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/brandon-relentnet/vector-tasks/internal/cache"
	"github.com/brandon-relentnet/vector-tasks/internal/calendar"
	"github.com/brandon-relentnet/vector-tasks/internal/notify"
	"github.com/brandon-relentnet/vector-tasks/internal/store"
)

// MockStore implements Store for testing
type MockStore struct {
	ListProjectsFunc  func() ([]store.Project, error)
	GetProjectFunc    func(id int64) (*store.Project, error)
	CreateProjectFunc func(p *store.Project) error
	UpdateProjectFunc func(id int64, patch store.ProjectPatch) (*store.Project, error)
	DeleteProjectFunc func(id int64) error
	ProjectTreeFunc   func() ([]*store.TreeNode, error)

	ListTasksFunc   func(filter store.TaskFilter) ([]store.Task, error)
	ActiveTasksFunc func() ([]store.Task, error)
	GetTaskFunc     func(id int64) (*store.Task, error)
	CreateTaskFunc  func(t *store.Task) error
	UpdateTaskFunc  func(id int64, patch store.TaskPatch) (*store.Task, error)
	DeleteTaskFunc  func(id int64) error
	NudgeTaskFunc   func(id int64) (*store.Task, error)

	GetDailyLogFunc     func(date string) (*store.DailyLog, error)
	AddBriefingFunc     func(date, slot, content string) (*store.Briefing, error)
	DeleteBriefingFunc  func(id int64) error
	DailyLogHistoryFunc func(filter store.HistoryFilter) ([]store.DailyLog, error)
	UpdateDailyLogFunc  func(date string, patch store.DailyLogPatch) (*store.DailyLog, error)
	MarkGoalFunc        func(date, goal string) (*store.DailyLog, error)
	DeleteDailyLogFunc  func(id int64) error
}

func (m *MockStore) ListProjects() ([]store.Project, error) {
	if m.ListProjectsFunc != nil {
		return m.ListProjectsFunc()
	}
	return nil, nil
}

func (m *MockStore) GetProject(id int64) (*store.Project, error) {
	if m.GetProjectFunc != nil {
		return m.GetProjectFunc(id)
	}
	return nil, fmt.Errorf("project %d: %w", id, store.ErrNotFound)
}

func (m *MockStore) CreateProject(p *store.Project) error {
	if m.CreateProjectFunc != nil {
		return m.CreateProjectFunc(p)
	}
	p.ID = 1
	return nil
}

func (m *MockStore) UpdateProject(id int64, patch store.ProjectPatch) (*store.Project, error) {
	if m.UpdateProjectFunc != nil {
		return m.UpdateProjectFunc(id, patch)
	}
	return &store.Project{ID: id}, nil
}

func (m *MockStore) DeleteProject(id int64) error {
	if m.DeleteProjectFunc != nil {
		return m.DeleteProjectFunc(id)
	}
	return nil
}

func (m *MockStore) ProjectTree() ([]*store.TreeNode, error) {
	if m.ProjectTreeFunc != nil {
		return m.ProjectTreeFunc()
	}
	return nil, nil
}

func (m *MockStore) ListTasks(filter store.TaskFilter) ([]store.Task, error) {
	if m.ListTasksFunc != nil {
		return m.ListTasksFunc(filter)
	}
	return nil, nil
}

func (m *MockStore) ActiveTasks() ([]store.Task, error) {
	if m.ActiveTasksFunc != nil {
		return m.ActiveTasksFunc()
	}
	return nil, nil
}

func (m *MockStore) GetTask(id int64) (*store.Task, error) {
	if m.GetTaskFunc != nil {
		return m.GetTaskFunc(id)
	}
	return nil, fmt.Errorf("task %d: %w", id, store.ErrNotFound)
}

func (m *MockStore) CreateTask(t *store.Task) error {
	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(t)
	}
	t.ID = 1
	return nil
}

func (m *MockStore) UpdateTask(id int64, patch store.TaskPatch) (*store.Task, error) {
	if m.UpdateTaskFunc != nil {
		return m.UpdateTaskFunc(id, patch)
	}
	return &store.Task{ID: id}, nil
}

func (m *MockStore) DeleteTask(id int64) error {
	if m.DeleteTaskFunc != nil {
		return m.DeleteTaskFunc(id)
	}
	return nil
}

func (m *MockStore) NudgeTask(id int64) (*store.Task, error) {
	if m.NudgeTaskFunc != nil {
		return m.NudgeTaskFunc(id)
	}
	return &store.Task{ID: id, NudgeCount: 1}, nil
}

func (m *MockStore) GetDailyLog(date string) (*store.DailyLog, error) {
	if m.GetDailyLogFunc != nil {
		return m.GetDailyLogFunc(date)
	}
	return nil, fmt.Errorf("daily log %s: %w", date, store.ErrNotFound)
}

func (m *MockStore) AddBriefing(date, slot, content string) (*store.Briefing, error) {
	if m.AddBriefingFunc != nil {
		return m.AddBriefingFunc(date, slot, content)
	}
	return &store.Briefing{ID: 1, Slot: slot, Content: content}, nil
}

func (m *MockStore) DeleteBriefing(id int64) error {
	if m.DeleteBriefingFunc != nil {
		return m.DeleteBriefingFunc(id)
	}
	return nil
}

func (m *MockStore) DailyLogHistory(filter store.HistoryFilter) ([]store.DailyLog, error) {
	if m.DailyLogHistoryFunc != nil {
		return m.DailyLogHistoryFunc(filter)
	}
	return nil, nil
}

func (m *MockStore) UpdateDailyLog(date string, patch store.DailyLogPatch) (*store.DailyLog, error) {
	if m.UpdateDailyLogFunc != nil {
		return m.UpdateDailyLogFunc(date, patch)
	}
	return &store.DailyLog{ID: 1, Date: date}, nil
}

func (m *MockStore) MarkGoal(date, goal string) (*store.DailyLog, error) {
	if m.MarkGoalFunc != nil {
		return m.MarkGoalFunc(date, goal)
	}
	return &store.DailyLog{ID: 1, Date: date, Reflections: goal}, nil
}

func (m *MockStore) DeleteDailyLog(id int64) error {
	if m.DeleteDailyLogFunc != nil {
		return m.DeleteDailyLogFunc(id)
	}
	return nil
}

// countingObserver records broadcasts received.
type countingObserver struct {
	mu     sync.Mutex
	events []notify.Event
}

func (o *countingObserver) Send(ev notify.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *countingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

type testServer struct {
	mock     *MockStore
	server   *Server
	notifier *notify.Notifier
	observer *countingObserver
	clock    *calendar.Clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock, err := calendar.NewClock("America/Chicago", 8)
	if err != nil {
		t.Fatalf("NewClock failed: %v", err)
	}

	mock := &MockStore{}
	notifier := notify.NewNotifier()
	observer := &countingObserver{}
	notifier.Register(observer)

	return &testServer{
		mock:     mock,
		server:   NewServer(mock, cache.NewService(cache.NewMemory()), notifier, clock),
		notifier: notifier,
		observer: observer,
		clock:    clock,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.server.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, w.Body.String())
	}
	return env
}

func TestListProjectsCachesSnapshot(t *testing.T) {
	ts := newTestServer(t)

	calls := 0
	ts.mock.ListProjectsFunc = func() ([]store.Project, error) {
		calls++
		return []store.Project{{ID: 1, Name: "Alpha", Path: "Alpha"}}, nil
	}

	for i := 0; i < 3; i++ {
		w := ts.do(t, http.MethodGet, "/api/v1/projects", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}

	if calls != 1 {
		t.Errorf("store hit %d times, want 1 (cached)", calls)
	}
}

func TestWriteThenReadFreshness(t *testing.T) {
	ts := newTestServer(t)

	// Phase 1: the cache holds a listing without Alpha.
	projects := []store.Project{{ID: 1, Name: "Base", Path: "Base"}}
	ts.mock.ListProjectsFunc = func() ([]store.Project, error) {
		out := make([]store.Project, len(projects))
		copy(out, projects)
		return out, nil
	}
	ts.mock.CreateProjectFunc = func(p *store.Project) error {
		p.ID = int64(len(projects) + 1)
		projects = append(projects, *p)
		return nil
	}

	if w := ts.do(t, http.MethodGet, "/api/v1/projects", nil); w.Code != http.StatusOK {
		t.Fatalf("warm-up read: status %d", w.Code)
	}

	// Phase 2: create Alpha; the handler must invalidate after the write.
	w := ts.do(t, http.MethodPost, "/api/v1/projects", gin.H{"name": "Alpha"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}

	// Phase 3: the next read must see Alpha, never the stale snapshot.
	w = ts.do(t, http.MethodGet, "/api/v1/projects", nil)
	env := decodeEnvelope(t, w)

	var got []store.Project
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	found := false
	for _, p := range got {
		if p.Name == "Alpha" {
			found = true
		}
	}
	if !found {
		t.Errorf("stale read after write: %+v", got)
	}
}

func TestMutationBroadcasts(t *testing.T) {
	ts := newTestServer(t)

	if w := ts.do(t, http.MethodPost, "/api/v1/projects", gin.H{"name": "P"}); w.Code != http.StatusCreated {
		t.Fatalf("create project: status %d", w.Code)
	}
	if got := ts.observer.count(); got != 1 {
		t.Errorf("after project create: %d events, want 1", got)
	}

	if w := ts.do(t, http.MethodPost, "/api/v1/tasks", gin.H{"title": "T"}); w.Code != http.StatusCreated {
		t.Fatalf("create task: status %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/v1/daily-log/briefing", gin.H{"slot": "Morning", "content": "hi"}); w.Code != http.StatusCreated {
		t.Fatalf("add briefing: status %d", w.Code)
	}

	if got := ts.observer.count(); got != 3 {
		t.Errorf("after three mutations: %d events, want 3", got)
	}
}

func TestReadsDoNotBroadcast(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/api/v1/projects", nil)
	ts.do(t, http.MethodGet, "/api/v1/tasks", nil)
	ts.do(t, http.MethodGet, "/api/v1/daily-log", nil)

	if got := ts.observer.count(); got != 0 {
		t.Errorf("reads broadcast %d events", got)
	}
}

func TestCreateProjectConflict(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.CreateProjectFunc = func(p *store.Project) error {
		return fmt.Errorf("project %q: %w", p.Name, store.ErrConflict)
	}

	w := ts.do(t, http.MethodPost, "/api/v1/projects", gin.H{"name": "Dup"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", w.Code)
	}

	env := decodeEnvelope(t, w)
	if env.Success || env.Error == nil || env.Error.Code != "RESOURCE_CONFLICT" {
		t.Errorf("envelope = %s", w.Body.String())
	}

	// A failed write must not notify anyone.
	if got := ts.observer.count(); got != 0 {
		t.Errorf("failed mutation broadcast %d events", got)
	}
}

func TestGetProjectNotFoundEnvelope(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/projects/99", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}

	env := decodeEnvelope(t, w)
	if env.Success || env.Error == nil || env.Error.Code != "RESOURCE_NOT_FOUND" {
		t.Errorf("envelope = %s", w.Body.String())
	}
}

func TestCreateProjectValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/projects", gin.H{"description": "no name"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing name: status %d, want 400", w.Code)
	}
}

func TestListProjectsPagination(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ListProjectsFunc = func() ([]store.Project, error) {
		out := make([]store.Project, 10)
		for i := range out {
			out[i] = store.Project{ID: int64(i + 1), Name: fmt.Sprintf("p%d", i+1)}
		}
		return out, nil
	}

	w := ts.do(t, http.MethodGet, "/api/v1/projects?limit=3&offset=4", nil)
	env := decodeEnvelope(t, w)

	var got []store.Project
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(got) != 3 || got[0].ID != 5 {
		t.Errorf("page = %+v", got)
	}

	// Offset past the end yields an empty page, not an error.
	w = ts.do(t, http.MethodGet, "/api/v1/projects?offset=50", nil)
	env = decodeEnvelope(t, w)
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty page, got %+v", got)
	}
}

func TestListTasksValidation(t *testing.T) {
	ts := newTestServer(t)

	if w := ts.do(t, http.MethodGet, "/api/v1/tasks?status=Paused", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad status: %d, want 400", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/v1/tasks?priority=Urgent", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad priority: %d, want 400", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/v1/tasks?project_id=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad project_id: %d, want 400", w.Code)
	}
}

func TestListTasksPassesFilter(t *testing.T) {
	ts := newTestServer(t)

	var seen store.TaskFilter
	ts.mock.ListTasksFunc = func(filter store.TaskFilter) ([]store.Task, error) {
		seen = filter
		return nil, nil
	}

	w := ts.do(t, http.MethodGet, "/api/v1/tasks?project_id=7&status=Todo&priority=High&limit=5&offset=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}

	if seen.ProjectID == nil || *seen.ProjectID != 7 {
		t.Errorf("project filter = %v", seen.ProjectID)
	}
	if seen.Status != "Todo" || seen.Priority != "High" || seen.Limit != 5 || seen.Offset != 2 {
		t.Errorf("filter = %+v", seen)
	}
}

func TestAddBriefingValidatesSlot(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/daily-log/briefing", gin.H{"slot": "Brunch", "content": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}

func TestGetDailyLogNullWhenAbsent(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/daily-log", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}

	env := decodeEnvelope(t, w)
	if !env.Success || string(env.Data) != "null" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestDailyLogCacheInvalidatedByMutation(t *testing.T) {
	ts := newTestServer(t)

	today := calendar.FormatDate(ts.clock.Today())
	reads := 0
	ts.mock.GetDailyLogFunc = func(date string) (*store.DailyLog, error) {
		if date != today {
			t.Errorf("asked for %s, want %s", date, today)
		}
		reads++
		return &store.DailyLog{ID: 1, Date: date, BigWin: fmt.Sprintf("v%d", reads)}, nil
	}

	// Two reads, one store hit.
	ts.do(t, http.MethodGet, "/api/v1/daily-log", nil)
	ts.do(t, http.MethodGet, "/api/v1/daily-log", nil)
	if reads != 1 {
		t.Fatalf("store read %d times before mutation, want 1", reads)
	}

	// Mutation drops today's snapshot; the next read goes back to the store.
	if w := ts.do(t, http.MethodPost, "/api/v1/daily-log/mark-goal?goal=ship", nil); w.Code != http.StatusOK {
		t.Fatalf("mark-goal: status %d", w.Code)
	}

	ts.do(t, http.MethodGet, "/api/v1/daily-log", nil)
	if reads != 2 {
		t.Errorf("store read %d times after mutation, want 2", reads)
	}
}

func TestMarkGoalRequiresParam(t *testing.T) {
	ts := newTestServer(t)

	if w := ts.do(t, http.MethodPost, "/api/v1/daily-log/mark-goal", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}

func TestUpdateDailyLogUsesToday(t *testing.T) {
	ts := newTestServer(t)

	var gotDate string
	ts.mock.UpdateDailyLogFunc = func(date string, patch store.DailyLogPatch) (*store.DailyLog, error) {
		gotDate = date
		return &store.DailyLog{ID: 1, Date: date}, nil
	}

	w := ts.do(t, http.MethodPost, "/api/v1/daily-log/update", gin.H{"big_win": "done"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if want := calendar.FormatDate(ts.clock.Today()); gotDate != want {
		t.Errorf("date = %s, want %s", gotDate, want)
	}
}

func TestNudgeTask(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/tasks/3/nudge", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}

	env := decodeEnvelope(t, w)
	var task store.Task
	if err := json.Unmarshal(env.Data, &task); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if task.ID != 3 || task.NudgeCount != 1 {
		t.Errorf("task = %+v", task)
	}
	if ts.observer.count() != 1 {
		t.Error("nudge did not broadcast")
	}
}

func TestLegacyRouteAliases(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ListProjectsFunc = func() ([]store.Project, error) {
		return []store.Project{{ID: 1, Name: "Alpha"}}, nil
	}

	for _, path := range []string{"/projects", "/tasks", "/daily-log/history"} {
		if w := ts.do(t, http.MethodGet, path, nil); w.Code != http.StatusOK {
			t.Errorf("legacy %s: status %d", path, w.Code)
		}
	}
}

func TestFlushCacheEndpoint(t *testing.T) {
	ts := newTestServer(t)

	calls := 0
	ts.mock.ListProjectsFunc = func() ([]store.Project, error) {
		calls++
		return nil, nil
	}

	ts.do(t, http.MethodGet, "/api/v1/projects", nil)
	if w := ts.do(t, http.MethodPost, "/api/v1/admin/flush-cache", nil); w.Code != http.StatusOK {
		t.Fatalf("flush: status %d", w.Code)
	}
	ts.do(t, http.MethodGet, "/api/v1/projects", nil)

	if calls != 2 {
		t.Errorf("store read %d times, want 2 (flush dropped the snapshot)", calls)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	if w := ts.do(t, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Errorf("status %d", w.Code)
	}
}
