package handlers

import (
	"net/http"

	"github.com/xelth-com/stockflow/internal/websocket"
)

// stockSocket upgrades to a WebSocket that receives every stock change
func (r *Router) stockSocket(w http.ResponseWriter, req *http.Request) {
	websocket.ServeWs(r.hub, session(req).UserID, w, req)
}
