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

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	. "github.com/onsi/gomega"

	"github.com/san-kum/planets/internal/config"
	"github.com/san-kum/planets/internal/logger"
	"github.com/san-kum/planets/internal/storage"
	"github.com/san-kum/planets/internal/universe"
)

type reply struct {
	Type string          `json:"type"`
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

func startServer(t *testing.T, mutate func(cfg *config.Config)) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.FPS = 50
	cfg.Simulation.Seed = 7
	cfg.Random.Count = 3
	if mutate != nil {
		mutate(cfg)
	}

	u := universe.New(cfg.UniverseOptions())
	s, err := New(u, cfg, logger.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		<-done
		ts.Close()
	})
	return ts
}

func dial(t *testing.T, ts *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next returns the next message of the given type, skipping others.
func next(t *testing.T, conn *websocket.Conn, types ...string) reply {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var r reply
		if err := json.Unmarshal(data, &r); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		for _, typ := range types {
			if r.Type == typ {
				return r
			}
		}
	}
	t.Fatalf("no %v message before deadline", types)
	return reply{}
}

func send(t *testing.T, conn *websocket.Conn, msg string) reply {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}
	return next(t, conn, TypeAck, TypeError)
}

func TestSnapshotOnConnect(t *testing.T) {
	g := NewWithT(t)
	ts := startServer(t, nil)
	conn := dial(t, ts, nil)

	r := next(t, conn, TypeSnapshot)
	var f storage.Frame
	g.Expect(json.Unmarshal(r.Data, &f)).To(Succeed())
	g.Expect(f.Bodies).To(BeEmpty())
}

func TestAddCommand(t *testing.T) {
	g := NewWithT(t)
	ts := startServer(t, nil)
	conn := dial(t, ts, nil)

	r := send(t, conn, `{"type":"add","id":"a1","data":{"position":[1,2,3],"velocity":[1,0,0],"mass":50}}`)
	g.Expect(r.Type).To(Equal(TypeAck))
	g.Expect(r.ID).To(Equal("a1"))

	var res Result
	g.Expect(json.Unmarshal(r.Data, &res)).To(Succeed())
	g.Expect(res.IDs).To(HaveLen(1))
	g.Expect(res.Bodies).To(Equal(1))

	var f storage.Frame
	g.Expect(json.Unmarshal(next(t, conn, TypeSnapshot).Data, &f)).To(Succeed())
	g.Expect(f.Bodies).To(HaveLen(1))
	g.Expect(f.Bodies[0].Mass).To(Equal(50.0))
	// UI velocity is scaled into simulation units
	g.Expect(f.Bodies[0].Velocity.X()).To(BeNumerically("~", universe.VelocityFactor, 1e-12))
}

func TestCommands(t *testing.T) {
	g := NewWithT(t)
	ts := startServer(t, nil)
	conn := dial(t, ts, nil)

	// paused, so merges cannot change the counts below
	r := send(t, conn, `{"type":"speed","data":{"speed":0}}`)
	g.Expect(r.Type).To(Equal(TypeAck))

	var res Result
	r = send(t, conn, `{"type":"random","data":{"count":4}}`)
	g.Expect(r.Type).To(Equal(TypeAck))
	g.Expect(json.Unmarshal(r.Data, &res)).To(Succeed())
	g.Expect(res.IDs).To(HaveLen(4))

	target := res.IDs[0]
	r = send(t, conn, `{"type":"select","data":{"id":`+itoa(target)+`}}`)
	g.Expect(r.Type).To(Equal(TypeAck))

	r = send(t, conn, `{"type":"orbital","data":{"count":2}}`)
	g.Expect(r.Type).To(Equal(TypeAck))
	g.Expect(json.Unmarshal(r.Data, &res)).To(Succeed())
	g.Expect(res.IDs).To(HaveLen(2))

	r = send(t, conn, `{"type":"fire","data":{"origin":[0,0,0],"direction":[0,0,1],"mass":5}}`)
	g.Expect(r.Type).To(Equal(TypeAck))
	g.Expect(json.Unmarshal(r.Data, &res)).To(Succeed())
	g.Expect(res.Bodies).To(Equal(7))

	r = send(t, conn, `{"type":"remove","data":{"id":`+itoa(target)+`}}`)
	g.Expect(r.Type).To(Equal(TypeAck))

	r = send(t, conn, `{"type":"clear"}`)
	g.Expect(r.Type).To(Equal(TypeAck))
	g.Expect(json.Unmarshal(r.Data, &res)).To(Succeed())
	g.Expect(res.Removed).To(Equal(6))
	g.Expect(res.Bodies).To(BeZero())

	resp, err := http.Get(ts.URL + "/api/universe")
	g.Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	var snap reply
	g.Expect(json.NewDecoder(resp.Body).Decode(&snap)).To(Succeed())
	g.Expect(snap.Type).To(Equal(TypeSnapshot))
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"unknown", `{"type":"explode"}`, "unknown command"},
		{"not json", `hello`, "unknown command"},
		{"dead id", `{"type":"remove","data":{"id":99}}`, "invalid body id"},
		{"bad mass", `{"type":"add","data":{"mass":-1}}`, "out of range"},
		{"bad payload", `{"type":"speed","data":"fast"}`, "malformed"},
		{"zero direction", `{"type":"fire","data":{"direction":[0,0,0]}}`, "malformed"},
		{"orbit without target", `{"type":"orbital","data":{"count":3}}`, "invalid body id"},
		{"far position", `{"type":"add","data":{"position":[1e308,0,0],"mass":10}}`, "escape distance"},
		{"far origin", `{"type":"fire","data":{"origin":[0,2e5,0],"direction":[0,0,1]}}`, "escape distance"},
		{"huge speed", `{"type":"add","data":{"velocity":[0,0,1e300],"mass":10}}`, "malformed"},
		{"huge mass", `{"type":"add","data":{"mass":1e300}}`, "out of range"},
		{"huge firing mass", `{"type":"fire","data":{"direction":[0,0,1],"mass":1e300}}`, "out of range"},
	}

	ts := startServer(t, nil)
	conn := dial(t, ts, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := send(t, conn, tt.msg)
			if r.Type != TypeError {
				t.Fatalf("expected an error, got %s", r.Type)
			}
			if !strings.Contains(string(r.Data), tt.want) {
				t.Errorf("expected %q in %s", tt.want, r.Data)
			}
		})
	}
}

func TestRejectedBodiesKeepStateFinite(t *testing.T) {
	g := NewWithT(t)
	cfg := config.DefaultConfig()
	cfg.Simulation.Seed = 7
	u := universe.New(cfg.UniverseOptions())
	u.Add(mgl64.Vec3{}, mgl64.Vec3{}, 10)
	u.Add(mgl64.Vec3{50, 0, 0}, mgl64.Vec3{}, 10)
	s, err := New(u, cfg, logger.Discard())
	g.Expect(err).NotTo(HaveOccurred())

	for _, x := range []string{"1e308", "-1e308"} {
		_, err := s.apply(Envelope{Type: CmdAdd, Data: json.RawMessage(`{"position":[` + x + `,0,0],"mass":10}`)})
		g.Expect(err).To(MatchError(ErrBadPayload))
	}
	s.step(16 * time.Millisecond)
	s.step(16 * time.Millisecond)

	g.Expect(u.Len()).To(Equal(2))
	for _, b := range u.All() {
		g.Expect(b.IsFinite()).To(BeTrue())
	}
	var r reply
	g.Expect(json.Unmarshal(s.snapshot(), &r)).To(Succeed())
	g.Expect(r.Type).To(Equal(TypeSnapshot))
}

func TestBodyLimit(t *testing.T) {
	ts := startServer(t, func(cfg *config.Config) { cfg.Server.MaxBodies = 2 })
	conn := dial(t, ts, nil)

	r := send(t, conn, `{"type":"random"}`)
	if r.Type != TypeError || !strings.Contains(string(r.Data), "body limit") {
		t.Errorf("expected the body limit error, got %s %s", r.Type, r.Data)
	}
}

func TestRateLimit(t *testing.T) {
	ts := startServer(t, func(cfg *config.Config) {
		cfg.Server.CommandsPerSecond = 0.001
		cfg.Server.CommandBurst = 1
	})
	conn := dial(t, ts, nil)

	if r := send(t, conn, `{"type":"center"}`); r.Type != TypeAck {
		t.Fatalf("first command should pass, got %s", r.Type)
	}
	r := send(t, conn, `{"type":"center"}`)
	if r.Type != TypeError || !strings.Contains(string(r.Data), "rate limit") {
		t.Errorf("expected throttling, got %s %s", r.Type, r.Data)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `planets_commands_total{result="throttled",type="center"} 1`) {
		t.Errorf("expected the throttled command to be counted:\n%s", body)
	}
}

func TestCORS(t *testing.T) {
	ts := startServer(t, func(cfg *config.Config) {
		cfg.Server.AllowedOrigins = []string{"http://allowed.example"}
	})

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("Origin", "http://allowed.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://allowed.example" {
		t.Errorf("expected the origin to be allowed, got %q", got)
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, _, err = websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	if err == nil {
		t.Error("expected the websocket handshake to be refused")
	}
	conn := dial(t, ts, http.Header{"Origin": {"http://allowed.example"}})
	next(t, conn, TypeSnapshot)
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		allowed []string
		origin  string
		want    bool
	}{
		{nil, "http://a", true},
		{[]string{"*"}, "http://a", true},
		{[]string{"http://a"}, "http://a", true},
		{[]string{"http://a"}, "http://b", false},
		{[]string{"http://a"}, "", true},
	}
	for _, tt := range tests {
		if got := originAllowed(tt.allowed, tt.origin); got != tt.want {
			t.Errorf("originAllowed(%v, %q) = %v, want %v", tt.allowed, tt.origin, got, tt.want)
		}
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.FPS = 0
	if _, err := New(universe.New(universe.DefaultOptions()), cfg, nil); err == nil {
		t.Error("expected an error for a zero fps")
	}
}

func itoa(id universe.ID) string {
	b, _ := json.Marshal(id)
	return string(b)
}
