package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/floodline/internal/rpc"
	"github.com/matheus3301/floodline/internal/tui/ui"
	"github.com/rivo/tview"
)

// QueueView lists pending offline actions.
type QueueView struct {
	*tview.Table
	theme   *ui.Theme
	actions []rpc.Action
	filter  string
}

// NewQueueView creates the queue table.
func NewQueueView(theme *ui.Theme) *QueueView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0).
		SetBorders(false)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetTitleColor(theme.TitleColor)
	table.SetSelectedStyle(tcellStyle(theme))

	qv := &QueueView{Table: table, theme: theme}
	qv.Update(nil)
	return qv
}

// Name implements Component.
func (qv *QueueView) Name() string { return "Queue" }

// Start implements Component.
func (qv *QueueView) Start() {}

// Stop implements Component.
func (qv *QueueView) Stop() {}

// Hints implements Component.
func (qv *QueueView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "f", Description: "Flush"},
		{Key: "o", Description: "Toggle online"},
		{Key: "/", Description: "Filter by type"},
	}
}

// SetFilter limits the table to actions whose type contains f.
func (qv *QueueView) SetFilter(f string) {
	qv.filter = strings.ToLower(strings.TrimSpace(f))
	qv.Update(qv.actions)
}

// Update refreshes the table with new actions.
func (qv *QueueView) Update(actions []rpc.Action) {
	qv.actions = actions
	qv.Clear()

	headers := []string{"TYPE", "ID", "QUEUED", "RETRIES", "DATA"}
	for i, h := range headers {
		qv.SetCell(0, i, tview.NewTableCell(" "+h).
			SetSelectable(false).
			SetTextColor(qv.theme.TableHeaderFg).
			SetBackgroundColor(qv.theme.TableHeaderBg))
	}

	row := 1
	for _, a := range actions {
		if qv.filter != "" && !strings.Contains(a.Type, qv.filter) {
			continue
		}
		retries := fmt.Sprintf("%d", a.RetryCount)
		retryColor := qv.theme.FgColor
		if a.RetryCount > 0 {
			retryColor = qv.theme.FlashWarnColor
		}
		qv.SetCell(row, 0, tview.NewTableCell(" "+a.Type).SetTextColor(qv.theme.FgColor))
		qv.SetCell(row, 1, tview.NewTableCell(" "+shortID(a.ID)).SetTextColor(qv.theme.FgColor))
		qv.SetCell(row, 2, tview.NewTableCell(" "+formatClock(a.Timestamp)).SetTextColor(qv.theme.FgColor))
		qv.SetCell(row, 3, tview.NewTableCell(" "+retries).SetTextColor(retryColor))
		qv.SetCell(row, 4, tview.NewTableCell(" "+string(a.Data)).SetTextColor(qv.theme.FgColor).SetMaxWidth(60).SetExpansion(1))
		row++
	}

	title := fmt.Sprintf(" Queue[%d] ", row-1)
	if qv.filter != "" {
		title = fmt.Sprintf(" Queue(%s)[%d] ", qv.filter, row-1)
	}
	qv.SetTitle(title)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04:05")
	}
	return t.Format("01/02 15:04")
}
