package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/wonny/zuwa/backend/internal/brain"
	"github.com/wonny/zuwa/backend/internal/contracts"
	"github.com/wonny/zuwa/backend/pkg/logger"
)

const (
	writeWait     = 10 * time.Second
	streamTimeout = 2 * time.Minute
)

// Stream message types
const (
	MessageEvent    = "event"
	MessageDecision = "decision"
	MessageError    = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage is one frame sent over the analysis stream
type StreamMessage struct {
	Type     string                    `json:"type"`
	Event    *contracts.StageEvent     `json:"event,omitempty"`
	Decision *contracts.DecisionRecord `json:"decision,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

// StreamHandler streams stage events of one run over a websocket
type StreamHandler struct {
	runner Runner
	logger *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(runner Runner, log *logger.Logger) *StreamHandler {
	return &StreamHandler{runner: runner, logger: log.WithComponent("stream")}
}

// Analyze upgrades the connection, runs the pipeline and closes after the decision frame
// GET /ws/analyze/{symbol}
func (h *StreamHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	symbol := contracts.NormalizeSymbol(mux.Vars(r)["symbol"])

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	if err := validate.Var(symbol, "required,numeric,len=6"); err != nil {
		h.send(conn, nil, StreamMessage{Type: MessageError, Error: "invalid symbol " + symbol})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), streamTimeout)
	defer cancel()

	// 클라이언트가 끊으면 실행 취소
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	// observer는 여러 goroutine에서 호출됨
	var mu sync.Mutex
	observe := func(ev contracts.StageEvent) {
		h.send(conn, &mu, StreamMessage{Type: MessageEvent, Event: &ev})
	}

	record := h.runner.Run(ctx, brain.RunRequest{Symbol: symbol}, observe)

	h.send(conn, &mu, StreamMessage{Type: MessageDecision, Decision: record})

	mu.Lock()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(writeWait))
	mu.Unlock()
}

func (h *StreamHandler) send(conn *websocket.Conn, mu *sync.Mutex, msg StreamMessage) {
	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.WithError(err).Debug("Stream write failed")
	}
}
