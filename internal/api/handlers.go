package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrEmptyBroadcast = errors.New("title and body are required")
	ErrThrottled      = errors.New("broadcast rate exceeded")
)

// Broadcaster sends one message to every device subscribed to topic.
type Broadcaster interface {
	SendToTopic(ctx context.Context, topic, title, body string) (string, error)
}

// newBroadcastLimiter allows perMinute broadcasts per minute with a burst of
// the same size. perMinute <= 0 disables throttling.
func newBroadcastLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

func broadcastHandler(b Broadcaster, limiter *rate.Limiter, defaultTopic string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BroadcastRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		req.Title = strings.TrimSpace(req.Title)
		req.Body = strings.TrimSpace(req.Body)
		if req.Title == "" || req.Body == "" {
			handleBroadcastError(w, ErrEmptyBroadcast)
			return
		}
		topic := req.Topic
		if topic == "" {
			topic = defaultTopic
		}

		if !limiter.Allow() {
			handleBroadcastError(w, ErrThrottled)
			return
		}

		id, err := b.SendToTopic(r.Context(), topic, req.Title, req.Body)
		if err != nil {
			logger.Warn("broadcast failed",
				zap.String("topic", topic),
				zap.String("request_id", GetRequestID(r.Context())),
				zap.Error(err),
			)
			handleBroadcastError(w, err)
			return
		}

		logger.Info("broadcast sent", zap.String("topic", topic), zap.String("message_id", id))
		writeJSON(w, http.StatusOK, BroadcastResponse{Success: true, MessageID: id})
	}
}

func handleBroadcastError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyBroadcast):
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, ErrThrottled):
		writeError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
