package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// ProfileData holds the daemon summary shown in the header.
type ProfileData struct {
	Profile  string
	Online   bool
	Status   string
	Pending  int
	Phase    string
	Version  string
	LastSync time.Time
}

// ProfileInfo displays daemon state in the header.
type ProfileInfo struct {
	*tview.TextView
	theme *Theme
}

// NewProfileInfo creates a new profile info panel.
func NewProfileInfo(theme *Theme) *ProfileInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &ProfileInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the profile info.
func (pi *ProfileInfo) Update(data *ProfileData) {
	pi.Clear()
	if data == nil {
		return
	}

	fgColor := colorName(pi.theme.FgColor)
	counterColor := colorName(pi.theme.CounterColor)

	network, netColor := "offline", colorName(pi.theme.OfflineColor)
	if data.Online {
		network, netColor = "online", colorName(pi.theme.OnlineColor)
	}
	phase := data.Phase
	if phase == "" {
		phase = "-"
	}

	text := fmt.Sprintf(
		"[%s::b]Profile:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Network:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Sync:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Pending:[-:-:-] [%s]%d[-]\n"+
			"[%s::b]Worker:[-:-:-]  [%s]%s %s[-]\n"+
			"[%s::b]Last:[-:-:-]    [%s]%s[-]",
		fgColor, counterColor, data.Profile,
		fgColor, netColor, network,
		fgColor, counterColor, data.Status,
		fgColor, counterColor, data.Pending,
		fgColor, counterColor, phase, data.Version,
		fgColor, counterColor, formatAge(data.LastSync, time.Now()),
	)

	_, _ = fmt.Fprint(pi, text)
}

// formatAge renders how long ago t was, or "never".
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm ago", h, m)
}
