package notification

import (
	"context"
	"time"

	"github.com/hackgods/appointment-push-notifier/internal/push"
)

// Routing hints the mobile app depends on.
const (
	ClickAction    = "FLUTTER_NOTIFICATION_CLICK"
	AndroidChannel = "citas_channel"
)

// Dispatcher turns one composed notification into one provider call.
type Dispatcher struct {
	transport push.Transport
	timeout   time.Duration
}

func NewDispatcher(transport push.Transport, timeout time.Duration) *Dispatcher {
	return &Dispatcher{transport: transport, timeout: timeout}
}

// Dispatch makes exactly one send. The send ignores the caller's
// cancellation and is bounded only by the dispatcher timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	sendCtx := context.WithoutCancel(ctx)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(sendCtx, d.timeout)
		defer cancel()
	}

	return d.transport.Send(sendCtx, BuildMessage(token, title, body, data))
}

// BuildMessage assembles the full provider payload.
func BuildMessage(token, title, body string, data map[string]string) push.Message {
	payload := make(map[string]string, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload["click_action"] = ClickAction

	return push.Message{
		Token:   token,
		Title:   title,
		Body:    body,
		Data:    payload,
		Android: push.AndroidHints{ChannelID: AndroidChannel, Priority: "high", DefaultSound: true},
		APNS:    push.APNSHints{Sound: "default", Badge: 1},
	}
}
