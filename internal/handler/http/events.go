package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/sse"
)

const keepaliveInterval = 30 * time.Second

var streamTopics = []string{sse.TopicAttendance, sse.TopicReports}

// EventHandler streams attendance and report events to EventSource clients.
type EventHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type eventHandlerImpl struct {
	hub        *sse.Hub
	jwtService jwt.Service
	keepalive  time.Duration
}

func NewEventHandler(hub *sse.Hub, jwtService jwt.Service) EventHandler {
	return &eventHandlerImpl{
		hub:        hub,
		jwtService: jwtService,
		keepalive:  keepaliveInterval,
	}
}

// parseTopics reads a comma separated topic list. Empty means every topic.
func parseTopics(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return streamTopics, nil
	}
	var topics []string
	for _, part := range strings.Split(raw, ",") {
		topic := strings.TrimSpace(part)
		known := false
		for _, t := range streamTopics {
			if t == topic {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown topic %q", topic)
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

// Stream implements EventHandler.
func (h *eventHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot set headers, so the token travels in the query
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	subject, err := h.jwtService.ValidateSSEToken(r.Context(), tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	topics, err := parseTopics(r.URL.Query().Get("topics"))
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(topics...)
	defer cleanup()

	slog.Debug("SSE client connected", "subject", subject, "topics", topics)

	connected, _ := json.Marshal(map[string]any{"status": "connected", "topics": topics})
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", connected)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				slog.Warn("Failed to encode SSE event", "type", event.Type, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			slog.Debug("SSE client disconnected", "subject", subject)
			return
		}
	}
}
