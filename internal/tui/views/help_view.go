package views

import (
	"fmt"

	"github.com/matheus3301/floodline/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Start implements Component.
func (hv *HelpView) Start() {}

// Stop implements Component.
func (hv *HelpView) Stop() {}

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

func (hv *HelpView) render() {
	kc := colorHex(hv.theme.MenuKeyColor)

	help := fmt.Sprintf(`
  [::b]Views[-:-:-]

  [%s]1[-:-:-]    Queue               [%s]2[-:-:-]     Caches
  [%s]3[-:-:-]    Events              [%s]4[-:-:-]     Gateway QR
  [%s]?[-:-:-]    Help                [%s]Esc[-:-:-]   Back

  [::b]Actions[-:-:-]

  [%s]f[-:-:-]    Flush queue         [%s]o[-:-:-]     Toggle online
  [%s]a[-:-:-]    Toggle auto-sync    [%s]m[-:-:-]     Toggle map caching
  [%s]r[-:-:-]    Refresh manifest    [%s]w[-:-:-]     Skip waiting
  [%s]/[-:-:-]    Filter queue        [%s]q[-:-:-]     Quit

  [::b]Commands (: mode)[-:-:-]

  [%s]:flush[-:-:-]              Flush queue
  [%s]:online[-:-:-] / [%s]:offline[-:-:-]   Override connectivity
  [%s]:push <text>[-:-:-]        Send a test notification
  [%s]:refresh[-:-:-]            Refresh manifest
  [%s]:quit[-:-:-] / [%s]:q[-:-:-]        Quit application
`,
		kc, kc, kc, kc, kc, kc,
		kc, kc, kc, kc, kc, kc, kc, kc,
		kc, kc, kc, kc, kc, kc, kc,
	)

	_, _ = fmt.Fprint(hv, help)
}
