package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/floodline/internal/rpc"
	"github.com/matheus3301/floodline/internal/tui/ui"
	"github.com/rivo/tview"
)

// CacheView lists the worker's named caches.
type CacheView struct {
	*tview.Table
	theme *ui.Theme
}

// NewCacheView creates the cache table.
func NewCacheView(theme *ui.Theme) *CacheView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0).
		SetBorders(false)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetTitleColor(theme.TitleColor)
	table.SetSelectedStyle(tcellStyle(theme))

	cv := &CacheView{Table: table, theme: theme}
	cv.Update(nil, rpc.WorkerState{})
	return cv
}

// Name implements Component.
func (cv *CacheView) Name() string { return "Caches" }

// Start implements Component.
func (cv *CacheView) Start() {}

// Stop implements Component.
func (cv *CacheView) Stop() {}

// Hints implements Component.
func (cv *CacheView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "r", Description: "Refresh manifest"},
		{Key: "w", Description: "Skip waiting"},
		{Key: "m", Description: "Toggle map caching"},
	}
}

// Update refreshes the table.
func (cv *CacheView) Update(caches []rpc.CacheInfo, worker rpc.WorkerState) {
	cv.Clear()
	headers := []string{"NAME", "ENTRIES", "GENERATION"}
	for i, h := range headers {
		cv.SetCell(0, i, tview.NewTableCell(" "+h).
			SetSelectable(false).
			SetTextColor(cv.theme.TableHeaderFg).
			SetBackgroundColor(cv.theme.TableHeaderBg))
	}
	for i, c := range caches {
		gen, color := "stale", cv.theme.FlashWarnColor
		if c.Current {
			gen, color = "current", cv.theme.FgColor
		}
		cv.SetCell(i+1, 0, tview.NewTableCell(" "+c.Name).SetTextColor(color).SetExpansion(1))
		cv.SetCell(i+1, 1, tview.NewTableCell(fmt.Sprintf(" %d", c.Entries)).SetTextColor(color))
		cv.SetCell(i+1, 2, tview.NewTableCell(" "+gen).SetTextColor(color))
	}
	phase := worker.Phase
	if phase == "" {
		phase = "idle"
	}
	cv.SetTitle(fmt.Sprintf(" Caches[%d] %s ", len(caches), phase))
}

func tcellStyle(theme *ui.Theme) tcell.Style {
	return tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg)
}
