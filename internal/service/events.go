package service

import (
	"encoding/json"

	ws "wms-backend/internal/websocket"
)

// StockEventPublisher pushes stock-changing document completions to connected
// websocket clients. A nil publisher is valid and drops everything, which is
// what the tests use.
type StockEventPublisher struct {
	hub *ws.Hub
}

func NewStockEventPublisher(hub *ws.Hub) *StockEventPublisher {
	return &StockEventPublisher{hub: hub}
}

func (p *StockEventPublisher) Publish(event string, data map[string]interface{}) {
	if p == nil || p.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		return
	}
	// Never block a document transition on slow websocket consumers.
	select {
	case p.hub.Broadcast <- payload:
	default:
	}
}
