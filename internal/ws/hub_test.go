package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"gocard/gateway/internal/clientstate"
	"gocard/gateway/internal/config"
	"gocard/gateway/internal/models"
	"gocard/gateway/internal/shiftclock"
	"gocard/gateway/internal/upstream"
)

const tickEmployeeID = 7

// hubFixture builds a hub over a machine whose backend reports one shift in
// progress today, clocked in 90 seconds ago.
func hubFixture(t *testing.T) *Hub {
	t.Helper()

	start := "09:00:00"
	shifts := []models.Shift{{
		ShiftID:     1,
		DateOfShift: time.Now().Format("2006-01-02"),
		EmployeeID:  tickEmployeeID,
		BicycleID:   1,
		RouteID:     1,
		StartTime:   &start,
	}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(shifts)
	}))
	t.Cleanup(srv.Close)

	client := upstream.NewClient(config.UpstreamConfig{
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
		RetryMax:       1,
	}, zerolog.Nop())

	state := clientstate.NewMemoryStore()
	if err := state.SetClockInStart(context.Background(), tickEmployeeID,
		time.Now().Add(-90*time.Second), time.Hour); err != nil {
		t.Fatalf("seed clock-in start: %v", err)
	}

	resource := upstream.NewResource[models.Shift](client, "/Shifts", time.Minute)
	machine := shiftclock.NewMachine(resource, client, state, zerolog.Nop())
	return NewHub(machine, zerolog.Nop())
}

func TestPublishDeliversClockTicks(t *testing.T) {
	hub := hubFixture(t)
	client := &Client{
		employeeID: tickEmployeeID,
		credential: "tok",
		send:       make(chan []byte, sendBuffer),
	}
	hub.clients[client] = struct{}{}

	hub.publish()

	var payload []byte
	select {
	case payload = <-client.send:
	default:
		t.Fatal("no tick published to a connected client")
	}

	var tick Tick
	if err := json.Unmarshal(payload, &tick); err != nil {
		t.Fatalf("decode tick: %v", err)
	}
	if tick.Mode != shiftclock.ModeOut {
		t.Fatalf("tick mode = %s, want out", tick.Mode)
	}
	if tick.ElapsedSeconds < 89 || tick.ElapsedSeconds > 120 {
		t.Fatalf("elapsed = %d, want about 90", tick.ElapsedSeconds)
	}
	if tick.StartedAt == nil {
		t.Fatal("tick missing startedAt")
	}
}

func TestPublishDropsSlowConsumer(t *testing.T) {
	hub := hubFixture(t)
	client := &Client{
		employeeID: tickEmployeeID,
		credential: "tok",
		send:       make(chan []byte, 1),
	}
	client.send <- []byte("stuck")
	hub.clients[client] = struct{}{}

	hub.publish()

	if _, still := hub.clients[client]; still {
		t.Fatal("slow consumer kept registered; the loop would stall on it")
	}
	if msg := <-client.send; string(msg) != "stuck" {
		t.Fatalf("buffered message = %q", msg)
	}
	if _, open := <-client.send; open {
		t.Fatal("dropped client's channel left open")
	}
}

func TestStopClosesRegisteredClients(t *testing.T) {
	hub := hubFixture(t)
	go hub.Run()

	client := &Client{
		employeeID: tickEmployeeID,
		credential: "tok",
		send:       make(chan []byte, sendBuffer),
	}
	hub.register <- client
	hub.Stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-client.send:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("client channel not closed after hub stop")
		}
	}
}

func TestServeStreamsTicksOverWebsocket(t *testing.T) {
	hub := hubFixture(t)
	go hub.Run()
	defer hub.Stop()

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/ws/clock", func(c *gin.Context) {
		hub.Serve(tickEmployeeID, "tok")(c)
	})
	srv := httptest.NewServer(engine)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/clock", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read tick: %v", err)
	}
	var tick Tick
	if err := json.Unmarshal(payload, &tick); err != nil {
		t.Fatalf("decode tick: %v", err)
	}
	if tick.Mode != shiftclock.ModeOut {
		t.Fatalf("tick mode = %s, want out", tick.Mode)
	}
}

func TestServeAfterStopClosesConnection(t *testing.T) {
	hub := hubFixture(t)
	go hub.Run()
	hub.Stop()

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/ws/clock", func(c *gin.Context) {
		hub.Serve(tickEmployeeID, "tok")(c)
	})
	srv := httptest.NewServer(engine)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/clock", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// A stopped hub must refuse the connection instead of parking the
	// handler on the register channel forever.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the stopped hub to close the connection")
	}
}
