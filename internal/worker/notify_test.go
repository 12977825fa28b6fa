package worker

import (
	"testing"

	"github.com/matheus3301/floodline/internal/bus"
)

func TestHandlePush(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantTitle string
		wantBody  string
		wantURL   string
	}{
		{"empty payload uses defaults", "", DefaultTitle, DefaultBody, ""},
		{"json fields", `{"title":"Rio Tietê","body":"Level rising","url":"/alerts/7","severity":"high","tag":"a7"}`, "Rio Tietê", "Level rising", "/alerts/7"},
		{"partial json", `{"body":"Check the map"}`, DefaultTitle, "Check the map", ""},
		{"plain text becomes body", "Evacuate low areas", DefaultTitle, "Evacuate low areas", ""},
		{"json string becomes body", `"quoted"`, DefaultTitle, "quoted", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "v1", Options{})
			shown, unsub := env.bus.Subscribe(bus.KindNotifyShow, 1)
			defer unsub()

			n := env.manager.HandlePush([]byte(tt.payload))
			if n.Title != tt.wantTitle || n.Body != tt.wantBody || n.Data.URL != tt.wantURL {
				t.Errorf("HandlePush() = %+v", n)
			}
			if len(n.Actions) != 2 || n.Actions[0].Action != ActionView || n.Actions[1].Action != ActionDismiss {
				t.Errorf("actions = %+v", n.Actions)
			}
			select {
			case evt := <-shown:
				if evt.Payload.(Notification).Title != n.Title {
					t.Errorf("event payload = %+v", evt.Payload)
				}
			default:
				t.Error("no notify.show event")
			}
		})
	}
}

func TestHandleNotificationClick(t *testing.T) {
	tests := []struct {
		name   string
		action string
		data   NotificationData
		want   string
	}{
		{"dismiss does nothing", ActionDismiss, NotificationData{URL: "/alerts/1"}, ""},
		{"view defaults to alerts", ActionView, NotificationData{}, testOrigin + "/alerts"},
		{"view uses url", ActionView, NotificationData{URL: "/alerts/9"}, testOrigin + "/alerts/9"},
		{"body click defaults to root", "", NotificationData{}, testOrigin + "/"},
		{"body click uses url", "", NotificationData{URL: "/map?lat=1"}, testOrigin + "/map?lat=1"},
		{"absolute url kept", ActionView, NotificationData{URL: "https://other.test/x"}, "https://other.test/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "v1", Options{})
			nav, unsub := env.bus.Subscribe(bus.KindNotifyNavigate, 1)
			defer unsub()

			got := env.manager.HandleNotificationClick(tt.action, tt.data)
			if got != tt.want {
				t.Errorf("target = %q, want %q", got, tt.want)
			}
			if tt.want == "" {
				if len(nav) != 0 {
					t.Error("dismiss published a navigation")
				}
				return
			}
			select {
			case evt := <-nav:
				if evt.Payload.(string) != tt.want {
					t.Errorf("event payload = %v", evt.Payload)
				}
			default:
				t.Error("no notify.navigate event")
			}
		})
	}
}
