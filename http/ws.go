package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"protpred/endpoint"
)

const (
	wsReadLimit = 1 << 20
	wsWriteWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket answers every {sequence, mode} frame with one Response
// frame until the client goes away. A frame that is not a request gets an
// error Response and the connection stays open.
func (a *API) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	requestID := GetRequestID(r.Context())
	a.logger.Debug("websocket connected", zap.String("request_id", requestID))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.logger.Warn("websocket read failed", zap.String("request_id", requestID), zap.Error(err))
			}
			return
		}

		var resp endpoint.Response
		var req endpoint.Request
		if err := json.Unmarshal(message, &req); err != nil {
			a.logger.Debug("malformed websocket frame", zap.String("request_id", requestID), zap.Error(err))
			resp = endpoint.Response{Error: "invalid request: " + err.Error()}
		} else {
			resp = a.invoke(transportWS, req)
		}
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(resp); err != nil {
			a.logger.Warn("websocket write failed", zap.String("request_id", requestID), zap.Error(err))
			return
		}
	}
}
