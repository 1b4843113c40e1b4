package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/san-kum/cyberdyn/internal/dynamo"
	"github.com/san-kum/cyberdyn/internal/logging"
	"github.com/san-kum/cyberdyn/internal/sim"
)

const wsWriteWait = 10 * time.Second

// wsMessage is the envelope for both directions of the /ws channel. Clients
// send {"type":"simulate","payload":{...request...}}; the server answers with
// "result" or "error".
type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsReply struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Payload any    `json:"payload"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	allowed := corsAllows(s.cfg.CORSOrigins)
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed(origin)
		},
	}
}

// handleWebSocket runs each received request through the pool and writes
// the outcome back on the same connection, one reply per request.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx := c.Request.Context()
	log := logging.FromContext(ctx, s.log)

	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn(ctx, "websocket upgrade failed", logging.Err(err))
		return
	}
	defer conn.Close()
	log.Info(ctx, "websocket client connected")

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug(ctx, "websocket read ended", logging.Err(err))
			}
			return
		}

		reply := s.handleWSMessage(ctx, msg)
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn(ctx, "websocket write failed", logging.Err(err))
			return
		}
	}
}

func (s *Server) handleWSMessage(ctx context.Context, msg wsMessage) wsReply {
	switch msg.Type {
	case "ping":
		return wsReply{Type: "pong", ID: msg.ID, Payload: gin.H{"timestamp": s.now().UTC()}}
	case "simulate":
	default:
		_, body := errorBody(dynamo.Invalid("type", "unsupported message type %q", msg.Type))
		return wsReply{Type: "error", ID: msg.ID, Payload: body}
	}

	req := sim.DefaultRequest()
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			_, body := errorBody(&dynamo.ValidationError{Message: "invalid request body: " + err.Error()})
			return wsReply{Type: "error", ID: msg.ID, Payload: body}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	res, err := s.pool.Run(runCtx, req)
	if err != nil {
		_, body := errorBody(err)
		return wsReply{Type: "error", ID: msg.ID, Payload: body}
	}
	return wsReply{Type: "result", ID: msg.ID, Payload: res}
}
