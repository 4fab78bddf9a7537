package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TFMV/springgraph/graph"
	"github.com/TFMV/springgraph/physics"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	g := graph.New()
	fd := physics.NewForceDirectedLayout(g, physics.DefaultParams())
	s := New(fd, Options{FPS: 100})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Loop().Run(ctx)
		close(done)
	}()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})
	return s, ts
}

func call(t *testing.T, ts *httptest.Server, method, path, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	return res.StatusCode, string(data)
}

func TestGraphAPI(t *testing.T) {
	_, ts := newTestServer(t)

	steps := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"add a", http.MethodPost, "/api/nodes", `{"id":"a","label":"A"}`, http.StatusCreated},
		{"add b", http.MethodPost, "/api/nodes", `{"id":"b"}`, http.StatusCreated},
		{"add a again", http.MethodPost, "/api/nodes", `{"id":"a"}`, http.StatusOK},
		{"bad node body", http.MethodPost, "/api/nodes", `{"id":`, http.StatusBadRequest},
		{"add edge", http.MethodPost, "/api/edges", `{"id":"ab","source":"a","target":"b"}`, http.StatusCreated},
		{"edge to nowhere", http.MethodPost, "/api/edges", `{"source":"a","target":"zz"}`, http.StatusUnprocessableEntity},
		{"remove unknown node", http.MethodDelete, "/api/nodes/zz", "", http.StatusNotFound},
		{"remove unknown edge", http.MethodDelete, "/api/edges/zz", "", http.StatusNotFound},
	}
	for _, st := range steps {
		if got, body := call(t, ts, st.method, st.path, st.body); got != st.want {
			t.Fatalf("%s: status %d, want %d (%s)", st.name, got, st.want, body)
		}
	}

	_, body := call(t, ts, http.MethodGet, "/api/graph", "")
	var snap snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Nodes) != 2 || len(snap.Edges) != 1 || snap.Nodes[0].Label != "A" {
		t.Fatalf("snapshot = %+v", snap)
	}

	if got, _ := call(t, ts, http.MethodDelete, "/api/nodes/a", ""); got != http.StatusNoContent {
		t.Fatalf("remove a: status %d", got)
	}
	_, body = call(t, ts, http.MethodGet, "/api/graph", "")
	snap = snapshot{}
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Nodes) != 1 || len(snap.Edges) != 0 {
		t.Errorf("after removing a: %+v", snap)
	}
}

func TestImport(t *testing.T) {
	_, ts := newTestServer(t)

	if got, body := call(t, ts, http.MethodPost, "/api/graph", `{"nodes":["a","b"],"edges":[["a","b"]]}`); got != http.StatusNoContent {
		t.Fatalf("import: status %d (%s)", got, body)
	}
	if got, _ := call(t, ts, http.MethodPost, "/api/graph", `{"edges":[["a","zz"]]}`); got != http.StatusUnprocessableEntity {
		t.Errorf("import with unknown node: status %d", got)
	}
	if got, _ := call(t, ts, http.MethodPost, "/api/graph", `{"nodes":["x","y"],"edges":[["x","zz"]]}`); got != http.StatusUnprocessableEntity {
		t.Errorf("import with unknown node after new nodes: status %d", got)
	}
	if snap := getSnapshot(t, ts); len(snap.Nodes) != 2 {
		t.Errorf("rejected import changed the graph: %+v", snap.Nodes)
	}
	if got, _ := call(t, ts, http.MethodPost, "/api/graph", `nope`); got != http.StatusBadRequest {
		t.Errorf("malformed import: status %d", got)
	}
}

func getSnapshot(t *testing.T, ts *httptest.Server) snapshot {
	t.Helper()
	_, body := call(t, ts, http.MethodGet, "/api/graph", "")
	var snap snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestQueries(t *testing.T) {
	_, ts := newTestServer(t)
	call(t, ts, http.MethodPost, "/api/graph", `{"nodes":[{"id":"a","label":"Alpha"},{"id":"b","label":"Beta"},{"id":"c","label":"Gamma"},{"id":"d","label":"Delta"}],"edges":[["a","b"],["c","a"]]}`)

	tests := []struct {
		name   string
		path   string
		status int
		want   []string
	}{
		{"all nodes", "/api/nodes", http.StatusOK, []string{"a", "b", "c", "d"}},
		{"label filter", "/api/nodes?label=ALP", http.StatusOK, []string{"a"}},
		{"label filter many", "/api/nodes?label=ta", http.StatusOK, []string{"b", "d"}},
		{"neighbors", "/api/nodes/a/neighbors", http.StatusOK, []string{"b", "c"}},
		{"isolated", "/api/nodes/d/neighbors", http.StatusOK, []string{}},
		{"unknown node", "/api/nodes/zz/neighbors", http.StatusNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, ts, http.MethodGet, tt.path, "")
			if status != tt.status {
				t.Fatalf("status %d, want %d (%s)", status, tt.status, body)
			}
			if tt.want == nil {
				return
			}
			var nodes []nodeJSON
			if err := json.Unmarshal([]byte(body), &nodes); err != nil {
				t.Fatal(err)
			}
			got := make([]string, 0, len(nodes))
			for _, n := range nodes {
				got = append(got, n.ID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshotElements(t *testing.T) {
	_, ts := newTestServer(t)
	call(t, ts, http.MethodPost, "/api/graph", `{"nodes":["a","b"],"edges":[{"id":"ab","source":"a","target":"b"}]}`)

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := getSnapshot(t, ts)
		if len(snap.Nodes) == 2 && snap.Nodes[0].Element != "" && len(snap.Edges) == 1 && snap.Edges[0].Element != "" {
			_, frame := call(t, ts, http.MethodGet, "/frame.svg", "")
			for _, id := range []string{snap.Nodes[0].Element, snap.Edges[0].Element} {
				if !strings.Contains(frame, `id="`+id+`"`) {
					t.Errorf("element %s missing from the frame", id)
				}
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("elements never assigned: %+v", snap)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestPointer(t *testing.T) {
	s, ts := newTestServer(t)
	call(t, ts, http.MethodPost, "/api/nodes", `{"id":"a"}`)

	got, body := call(t, ts, http.MethodPost, "/api/pointer/press", `{"x":10,"y":10}`)
	if got != http.StatusOK || !strings.Contains(body, `"selected": "a"`) {
		t.Fatalf("press: status %d body %s", got, body)
	}
	if got, _ := call(t, ts, http.MethodPost, "/api/pointer/release", `{"x":10,"y":10}`); got != http.StatusOK {
		t.Errorf("release: status %d", got)
	}
	if got, _ := call(t, ts, http.MethodPost, "/api/pointer/wiggle", `{"x":1,"y":1}`); got != http.StatusNotFound {
		t.Errorf("unknown action: status %d", got)
	}

	call(t, ts, http.MethodPost, "/api/pointer/press", `{"x":10,"y":10}`)
	call(t, ts, http.MethodPost, "/api/pointer/press", `{"x":10,"y":10}`)
	call(t, ts, http.MethodPost, "/api/pointer/release", `{"x":10,"y":10}`)
	var pinned bool
	if err := s.Loop().Do(context.Background(), func() { pinned = s.layout.Pinned("a") }); err != nil {
		t.Fatal(err)
	}
	if pinned {
		t.Error("node still pinned after press, press, release")
	}
}

func TestFrame(t *testing.T) {
	_, ts := newTestServer(t)
	call(t, ts, http.MethodPost, "/api/nodes", `{"id":"a","label":"Alpha"}`)

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, body := call(t, ts, http.MethodGet, "/frame.svg", "")
		if got != http.StatusOK {
			t.Fatalf("frame: status %d", got)
		}
		if strings.Contains(body, "Alpha") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("node never appeared in the frame:\n%s", body)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if got, body := call(t, ts, http.MethodGet, "/", ""); got != http.StatusOK || !strings.Contains(body, "/frame.svg") {
		t.Errorf("index: status %d", got)
	}
}
