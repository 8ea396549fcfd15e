package devtools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/sharedstate/pkg/binding"
	"github.com/vango-dev/sharedstate/pkg/component"
	"github.com/vango-dev/sharedstate/pkg/listenable"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	return ev
}

func TestWebSocketStream(t *testing.T) {
	insp, count, _ := newTestInspector(t)
	srv := httptest.NewServer(insp.Handler())
	defer srv.Close()

	conn := dial(t, srv)

	hello := readEvent(t, conn)
	if hello.Type != EventSnapshot || hello.Client == "" {
		t.Fatalf("hello = %+v", hello)
	}
	if len(hello.States) != 2 || hello.States[0].Name != "count" {
		t.Fatalf("snapshot states = %+v", hello.States)
	}

	count.Set(7)
	ev := readEvent(t, conn)
	if ev.Type != EventChange || ev.State != "count" || string(ev.Value) != "7" || ev.Version != 1 {
		t.Fatalf("change = %+v", ev)
	}

	insp.Unregister("count")
	ev = readEvent(t, conn)
	if ev.Type != EventRemoved || ev.State != "count" {
		t.Fatalf("removed = %+v", ev)
	}
}

func TestWebSocketChangeDuringHelloIsDelivered(t *testing.T) {
	insp, count, _ := newTestInspector(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		insp.hub.serve(w, r, func(id string) Event {
			hello := Event{Type: EventSnapshot, Client: id, States: insp.States()}
			count.Set(5)
			return hello
		})
	}))
	defer srv.Close()

	conn := dial(t, srv)

	hello := readEvent(t, conn)
	if hello.Type != EventSnapshot {
		t.Fatalf("first event = %+v, want snapshot", hello)
	}
	if string(hello.States[0].Value) != "3" {
		t.Fatalf("snapshot count = %s, want 3", hello.States[0].Value)
	}
	ev := readEvent(t, conn)
	if ev.Type != EventChange || ev.State != "count" || string(ev.Value) != "5" || ev.Version != 1 {
		t.Fatalf("change = %+v", ev)
	}
}

func TestWebSocketClientsGetDistinctIDs(t *testing.T) {
	insp, _, _ := newTestInspector(t)
	srv := httptest.NewServer(insp.Handler())
	defer srv.Close()

	a := readEvent(t, dial(t, srv))
	b := readEvent(t, dial(t, srv))
	if a.Client == b.Client {
		t.Errorf("both clients got id %q", a.Client)
	}
	if insp.ClientCount() != 2 {
		t.Errorf("ClientCount() = %d, want 2", insp.ClientCount())
	}
}

func TestWebSocketDisconnect(t *testing.T) {
	insp, _, _ := newTestInspector(t)
	srv := httptest.NewServer(insp.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	readEvent(t, conn)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for insp.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d after disconnect", insp.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPutThroughRuntimeDispatcher(t *testing.T) {
	rt := component.NewRuntime(component.WithLogger(quietLogger))
	count := listenable.NewSharedState(1, listenable.WithName("count"))

	var view *component.Component
	rt.Act(func() {
		view = rt.Mount(nil, func(o *component.Owner) any {
			v, _ := binding.UseSharedState(o, count)
			return v
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Run(ctx)

	insp := New(WithLogger(quietLogger), WithDispatcher(rt))
	defer insp.Close()
	Register(insp, count)

	rec := do(t, insp.Handler(), "PUT", "/api/states/count", "9")
	if rec.Code != 200 {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	// Runs after the write's render pass on the same goroutine.
	out := make(chan any, 1)
	rt.Dispatch(func() { out <- view.Output() })
	select {
	case got := <-out:
		if got != 9 {
			t.Errorf("rendered %v, want 9", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runtime did not run dispatched read")
	}
}

type stuckDispatcher struct{}

func (stuckDispatcher) Dispatch(func()) {}

func TestPutDispatcherTimeout(t *testing.T) {
	insp := New(WithLogger(quietLogger), WithDispatcher(stuckDispatcher{}))
	defer insp.Close()
	count := listenable.NewSharedState(1, listenable.WithName("count"))
	Register(insp, count)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest("PUT", "/api/states/count", strings.NewReader("2")).WithContext(ctx)
	rec := httptest.NewRecorder()
	insp.Handler().ServeHTTP(rec, req)

	if rec.Code != 503 {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body map[string]json.RawMessage
	json.Unmarshal(rec.Body.Bytes(), &body)
	if _, ok := body["error"]; !ok {
		t.Errorf("body = %s", rec.Body)
	}
	if count.Value() != 1 {
		t.Errorf("value changed to %d", count.Value())
	}
}
