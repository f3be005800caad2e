package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/tbxark/viewagent/agent"
	"github.com/tbxark/viewagent/config"
	"github.com/tbxark/viewagent/render"
	"github.com/tbxark/viewagent/types"
	"github.com/tbxark/viewagent/views"
)

func newTestServer(t *testing.T, collab agent.Collaborator) (*httptest.Server, *agent.Manager) {
	t.Helper()
	p, err := agent.NewPipeline(collab, render.JSONRenderers(views.DefaultRegistry()), config.DefaultOptions())
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	m := agent.NewManager(p, agent.WithSnapshotCache(agent.NewMemoryCache[agent.Snapshot]()))
	srv := httptest.NewServer(NewHandler(m).Router())
	t.Cleanup(srv.Close)
	return srv, m
}

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func staticReply(s string) agent.Collaborator {
	return agent.CollaboratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return s, nil
	})
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, staticReply(`{"component":"ProgressTracker","props":{"goal":"Land a job","percentComplete":40},"contextUpdate":{"careerStage":"job seeker"}}`))

	status, body := do(t, http.MethodPost, srv.URL+"/sessions", "")
	if status != http.StatusCreated {
		t.Fatalf("create: status %d: %s", status, body)
	}
	var session sessionResponse
	if err := sonic.Unmarshal(body, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.ID == "" || len(session.Messages) != 1 || session.Messages[0].View.Type != types.WelcomeCard {
		t.Fatalf("unexpected new session: %+v", session)
	}

	status, body = do(t, http.MethodPost, srv.URL+"/sessions/"+session.ID+"/turns", `{"text":"how am I doing?"}`)
	if status != http.StatusOK {
		t.Fatalf("turn: status %d: %s", status, body)
	}
	var turn turnResponse
	if err := sonic.Unmarshal(body, &turn); err != nil {
		t.Fatalf("decode turn: %v", err)
	}
	if turn.Descriptor == nil || turn.Descriptor.Type != types.ProgressTracker || turn.Error != "" {
		t.Fatalf("unexpected turn: %+v", turn)
	}
	if turn.Context.CareerStage == nil || *turn.Context.CareerStage != "job seeker" {
		t.Fatalf("context not updated: %+v", turn.Context)
	}

	status, body = do(t, http.MethodGet, srv.URL+"/sessions/"+session.ID+"/snapshot", "")
	if status != http.StatusOK {
		t.Fatalf("export: status %d: %s", status, body)
	}
	var snap agent.Snapshot
	if err := sonic.Unmarshal(body, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Log) != 3 {
		t.Fatalf("snapshot log has %d messages", len(snap.Log))
	}

	status, body = do(t, http.MethodPost, srv.URL+"/sessions/"+session.ID+"/reset", "")
	if status != http.StatusOK {
		t.Fatalf("reset: status %d: %s", status, body)
	}
	status, body = do(t, http.MethodPut, srv.URL+"/sessions/"+session.ID+"/snapshot", string(mustMarshal(t, snap)))
	if status != http.StatusOK {
		t.Fatalf("import: status %d: %s", status, body)
	}
	if err := sonic.Unmarshal(body, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if len(session.Messages) != 3 {
		t.Fatalf("imported session has %d messages", len(session.Messages))
	}

	if status, body = do(t, http.MethodDelete, srv.URL+"/sessions/"+session.ID, ""); status != http.StatusNoContent {
		t.Fatalf("delete: status %d: %s", status, body)
	}
	if status, _ = do(t, http.MethodGet, srv.URL+"/sessions/"+session.ID, ""); status != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", status)
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := sonic.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestErrorStatus(t *testing.T) {
	srv, m := newTestServer(t, staticReply(`{"component":"WelcomeCard","props":{}}`))
	if _, err := m.Open(context.Background(), "s1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "unknown session", method: http.MethodPost, path: "/sessions/nope/turns", body: `{"text":"hi"}`, want: http.StatusNotFound},
		{name: "empty input", method: http.MethodPost, path: "/sessions/s1/turns", body: `{"text":"  "}`, want: http.StatusBadRequest},
		{name: "bad body", method: http.MethodPost, path: "/sessions/s1/turns", body: `{`, want: http.StatusBadRequest},
		{name: "bad snapshot", method: http.MethodPut, path: "/sessions/s1/snapshot", body: `{"version":"0.1"}`, want: http.StatusBadRequest},
		{name: "unknown view schema", method: http.MethodGet, path: "/views/FooBar/schema", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, tt.method, srv.URL+tt.path, tt.body)
			if status != tt.want {
				t.Fatalf("status %d, want %d: %s", status, tt.want, body)
			}
			var resp errorResponse
			if err := sonic.Unmarshal(body, &resp); err != nil || resp.Error == "" {
				t.Fatalf("expected error body, got %s", body)
			}
		})
	}
}

func TestTurnInProgressConflict(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	srv, m := newTestServer(t, agent.CollaboratorFunc(func(ctx context.Context, prompt string) (string, error) {
		once.Do(func() { close(started) })
		<-release
		return `{"component":"WelcomeCard","props":{}}`, nil
	}))
	if _, err := m.Open(context.Background(), "s1"); err != nil {
		t.Fatalf("open: %v", err)
	}

	done := make(chan int, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/sessions/s1/turns", strings.NewReader(`{"text":"first"}`))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()
	<-started
	status, body := do(t, http.MethodPost, srv.URL+"/sessions/s1/turns", `{"text":"second"}`)
	close(release)
	if status != http.StatusConflict {
		t.Fatalf("second turn: status %d, want 409: %s", status, body)
	}
	if first := <-done; first != http.StatusOK {
		t.Fatalf("first turn: status %d", first)
	}
}

func TestViews(t *testing.T) {
	srv, _ := newTestServer(t, staticReply(""))
	status, body := do(t, http.MethodGet, srv.URL+"/views", "")
	if status != http.StatusOK {
		t.Fatalf("views: status %d", status)
	}
	var resp struct {
		Views []viewResponse `json:"views"`
	}
	if err := sonic.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Views) != 10 || resp.Views[0].Type != types.WelcomeCard {
		t.Fatalf("unexpected catalog: %+v", resp.Views)
	}

	status, body = do(t, http.MethodGet, srv.URL+"/views/ActionPlan/schema", "")
	if status != http.StatusOK {
		t.Fatalf("schema: status %d: %s", status, body)
	}
	if !strings.Contains(string(body), `"goal"`) || !strings.Contains(string(body), `"additionalProperties":false`) {
		t.Fatalf("unexpected schema: %s", body)
	}
}

func TestImportRejectedLeavesNoSession(t *testing.T) {
	srv, m := newTestServer(t, staticReply(""))
	status, body := do(t, http.MethodPut, srv.URL+"/sessions/ghost/snapshot", `{"version":"0.1"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("import: status %d: %s", status, body)
	}
	if status, body = do(t, http.MethodGet, srv.URL+"/sessions/ghost", ""); status != http.StatusNotFound {
		t.Fatalf("get: status %d: %s", status, body)
	}
	if ids := m.Sessions(); len(ids) != 0 {
		t.Fatalf("sessions = %v", ids)
	}
}
