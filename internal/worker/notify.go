package worker

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/matheus3301/floodline/internal/bus"
	"go.uber.org/zap"
)

const (
	DefaultTitle = "Flood Alert"
	DefaultBody  = "New flood alert in your area"

	ActionView    = "view"
	ActionDismiss = "dismiss"
)

// NotificationAction is a button shown on a notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// NotificationData travels with a notification and comes back on click.
type NotificationData struct {
	URL      string `json:"url,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// Notification is what the notification surface is asked to display.
type Notification struct {
	Title   string               `json:"title"`
	Body    string               `json:"body"`
	Icon    string               `json:"icon"`
	Badge   string               `json:"badge"`
	Tag     string               `json:"tag,omitempty"`
	Data    NotificationData     `json:"data"`
	Actions []NotificationAction `json:"actions"`
}

type pushPayload struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	URL      string `json:"url"`
	Tag      string `json:"tag"`
	Severity string `json:"severity"`
}

// HandlePush turns a push payload into a notification and publishes it on
// notify.show. A payload that is not a JSON object is used as the body text.
func (m *Manager) HandlePush(payload []byte) Notification {
	var p pushPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			text := strings.TrimSpace(string(payload))
			var s string
			if json.Unmarshal(payload, &s) == nil {
				text = s
			}
			p = pushPayload{Body: text}
		}
	}
	n := Notification{
		Title: p.Title,
		Body:  p.Body,
		Icon:  "/icons/icon-192x192.png",
		Badge: "/icons/icon-192x192.png",
		Tag:   p.Tag,
		Data:  NotificationData{URL: p.URL, Severity: p.Severity},
		Actions: []NotificationAction{
			{Action: ActionView, Title: "View"},
			{Action: ActionDismiss, Title: "Dismiss"},
		},
	}
	if n.Title == "" {
		n.Title = DefaultTitle
	}
	if n.Body == "" {
		n.Body = DefaultBody
	}
	m.logger.Info("push received", zap.String("title", n.Title), zap.String("tag", n.Tag), zap.String("severity", p.Severity))
	m.bus.Emit(bus.KindNotifyShow, n)
	return n
}

// HandleNotificationClick resolves where a click should navigate and publishes
// the target on notify.navigate. Dismiss navigates nowhere and returns "".
func (m *Manager) HandleNotificationClick(action string, data NotificationData) string {
	var path string
	switch action {
	case ActionDismiss:
		return ""
	case ActionView:
		path = data.URL
		if path == "" {
			path = "/alerts"
		}
	default:
		path = data.URL
		if path == "" {
			path = "/"
		}
	}
	target := m.resolve(path)
	m.bus.Emit(bus.KindNotifyNavigate, target)
	return target
}

func (m *Manager) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return m.origin.String()
	}
	return m.origin.ResolveReference(ref).String()
}
