package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"forestval/internal/logger"
	"forestval/internal/rotation"
	"forestval/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

var testSecret = []byte("ws-secret")

type engineOnlyService struct {
	service.ValuationService
}

func (engineOnlyService) Valuate(ctx context.Context, subject string, req service.ValuationRequest) (service.ValuationResponse, error) {
	params := rotation.Params{
		RotationLength:    req.RotationLength,
		InterestRate:      req.InterestRate,
		FlatYearlyCost:    req.FlatYearlyCost,
		FlatYearlyRevenue: req.FlatYearlyRevenue,
	}
	v, err := rotation.Compute(req.Entries, params)
	if err != nil {
		return service.ValuationResponse{}, err
	}
	return service.ValuationResponse{RunID: subject, Params: params, Valuation: v}, nil
}

type panickingService struct {
	service.ValuationService
}

func (panickingService) Valuate(ctx context.Context, subject string, req service.ValuationRequest) (service.ValuationResponse, error) {
	panic("engine blew up")
}

func startServer(t *testing.T, svc service.ValuationService) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(logger.Nop())
	stop := make(chan struct{})
	go hub.Run(stop)
	t.Cleanup(func() { close(stop) })

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		ServeWs(hub, svc, testSecret, c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "forester", "role": "analyst"}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func valuateFrame(t *testing.T, req service.ValuationRequest) Message {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return Message{Type: TypeValuate, Payload: payload}
}

func TestServeWsRejectsMissingToken(t *testing.T) {
	_, url := startServer(t, engineOnlyService{})
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatalf("expected handshake to fail without token")
	}
	if _, _, err := websocket.DefaultDialer.Dial(url+"?token=nope", nil); err == nil {
		t.Fatalf("expected handshake to fail with invalid token")
	}
}

func TestLiveValuation(t *testing.T) {
	_, url := startServer(t, engineOnlyService{})
	conn := dial(t, url)

	req := service.ValuationRequest{
		RotationLength: 2,
		InterestRate:   4,
		Entries: []rotation.Entry{
			{T: 0, Measure: "reforest", Cost: 100},
			{T: 1},
			{T: 2, Measure: "harvest", Revenue: 400},
		},
	}
	if err := conn.WriteJSON(valuateFrame(t, req)); err != nil {
		t.Fatalf("write: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Type != TypeValuation {
		t.Fatalf("type: got=%q error=%q", msg.Type, msg.Error)
	}
	var res struct {
		RunID        string `json:"run_id"`
		TerminalYear int    `json:"terminal_year"`
		Rows         []rotation.Row
	}
	if err := json.Unmarshal(msg.Payload, &res); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if res.RunID != "forester" || res.TerminalYear != 2 || len(res.Rows) != 3 {
		t.Fatalf("unexpected valuation: %+v", res)
	}

	req.InterestRate = 0
	if err := conn.WriteJSON(valuateFrame(t, req)); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg = readMessage(t, conn)
	if msg.Type != TypeError || msg.Kind != "degenerate_rate" {
		t.Fatalf("expected degenerate_rate error, got %+v", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg = readMessage(t, conn)
	if msg.Type != TypeError || msg.Kind != "invalid_input" {
		t.Fatalf("expected invalid_input error, got %+v", msg)
	}

	if err := conn.WriteJSON(Message{Type: "subscribe"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg = readMessage(t, conn)
	if msg.Type != TypeError || !strings.Contains(msg.Error, "unknown message type") {
		t.Fatalf("expected unknown type error, got %+v", msg)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub, url := startServer(t, engineOnlyService{})
	a := dial(t, url)
	b := dial(t, url)

	deadline := time.Now().Add(5 * time.Second)
	for hub.ClientCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("clients never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(service.EventRunRecorded, map[string]string{"id": "run-1"})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if msg.Type != service.EventRunRecorded || !strings.Contains(string(msg.Payload), "run-1") {
			t.Fatalf("unexpected broadcast: %+v", msg)
		}
	}

	_ = a.Close()
	deadline = time.Now().Add(5 * time.Second)
	for hub.ClientCount() > 1 {
		if time.Now().After(deadline) {
			t.Fatalf("closed client never unregistered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEnqueueKeepsLatest(t *testing.T) {
	c := &Client{pending: make(chan service.ValuationRequest, 1)}
	c.enqueue(service.ValuationRequest{RotationLength: 1})
	c.enqueue(service.ValuationRequest{RotationLength: 2})
	c.enqueue(service.ValuationRequest{RotationLength: 3})

	if got := <-c.pending; got.RotationLength != 3 {
		t.Fatalf("queued request: got=%d want=3", got.RotationLength)
	}
	select {
	case extra := <-c.pending:
		t.Fatalf("unexpected extra request %+v", extra)
	default:
	}
}

func TestComputePanicFailsOnlyTheRequest(t *testing.T) {
	hub, url := startServer(t, panickingService{})
	conn := dial(t, url)

	req := service.ValuationRequest{RotationLength: 1, InterestRate: 3, Entries: []rotation.Entry{{T: 0}, {T: 1, Revenue: 10}}}
	for i := 0; i < 2; i++ {
		if err := conn.WriteJSON(valuateFrame(t, req)); err != nil {
			t.Fatalf("write: %v", err)
		}
		msg := readMessage(t, conn)
		if msg.Type != TypeError || msg.Kind != "internal" {
			t.Fatalf("request %d: expected internal error, got %+v", i, msg)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("client count: got=%d want=1", hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
