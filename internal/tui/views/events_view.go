package views

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matheus3301/floodline/internal/rpc"
	"github.com/matheus3301/floodline/internal/tui/ui"
	"github.com/rivo/tview"
)

// EventsView is a live log of daemon events.
type EventsView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewEventsView creates the event log view.
func NewEventsView(theme *ui.Theme) *EventsView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Events ")
	tv.SetTitleColor(theme.TitleColor)

	return &EventsView{TextView: tv, theme: theme}
}

// Name implements Component.
func (ev *EventsView) Name() string { return "Events" }

// Start implements Component.
func (ev *EventsView) Start() {}

// Stop implements Component.
func (ev *EventsView) Stop() {}

// Hints implements Component.
func (ev *EventsView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders events, newest first.
func (ev *EventsView) Update(events []rpc.Event) {
	ev.Clear()
	var sb strings.Builder
	for _, e := range events {
		color := colorFor(ev.theme, e)
		fmt.Fprintf(&sb, "[%s]%s[-] [%s::b]%-26s[-:-:-] %s\n",
			colorHex(ev.theme.CounterColor), e.OccurredAt.Local().Format("15:04:05"),
			color, tview.Escape(e.Kind), tview.Escape(compact(e.Payload)))
	}
	_, _ = fmt.Fprint(ev, sb.String())
	ev.ScrollToBeginning()
}

// colorFor picks a color by event namespace, or by severity for notifications.
func colorFor(theme *ui.Theme, e rpc.Event) string {
	if strings.HasPrefix(e.Kind, "notify.") {
		var payload struct {
			Data struct {
				Severity string `json:"severity"`
			} `json:"data"`
		}
		if json.Unmarshal(e.Payload, &payload) == nil {
			if c, ok := theme.SeverityColors[payload.Data.Severity]; ok {
				return colorHex(c)
			}
		}
	}
	switch {
	case strings.HasSuffix(e.Kind, "dropped"), strings.HasSuffix(e.Kind, "failed"), e.Kind == "net.offline":
		return colorHex(theme.FlashErrColor)
	case strings.HasPrefix(e.Kind, "worker."):
		return colorHex(theme.TitleColor)
	default:
		return colorHex(theme.MenuKeyColor)
	}
}

func compact(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "null" || s == "{}" {
		return ""
	}
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}
