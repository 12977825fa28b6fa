package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// StatusBar displays persistent profile and sync status.
type StatusBar struct {
	*tview.TextView
	profile string
	status  string
	online  bool
	syncing bool
	note    string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetSync updates the network flag and sync status together.
func (sb *StatusBar) SetSync(online bool, status string, syncing bool) {
	sb.online = online
	sb.status = status
	sb.syncing = syncing
	sb.render()
}

// SetNote sets the trailing note.
func (sb *StatusBar) SetNote(msg string) {
	sb.note = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	network := "[red]offline[-]"
	if sb.online {
		network = "[green]online[-]"
	}
	syncIcon := " "
	if sb.syncing {
		syncIcon = "[green]~[-]"
	}

	clock := time.Now().Format("15:04")

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s %s | %s", sb.profile, network, sb.status, syncIcon, clock)
	if sb.note != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", tview.Escape(sb.note))
	}

	_, _ = fmt.Fprint(sb, line)
}

func colorHex(c tcell.Color) string {
	return fmt.Sprintf("#%06x", c.Hex())
}
