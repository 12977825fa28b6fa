package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// MenuHint describes a keyboard shortcut for the header menu.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // view switches, drawn in their own color
}

// Component is a page the dashboard can show.
type Component interface {
	tview.Primitive
	Name() string
	Start()
	Stop()
	Hints() []MenuHint
}

// menuRows is how many hints fit in one header column.
const menuRows = 6

// Menu lays hints out in header-height columns.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates the header menu.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)
	return &Menu{TextView: tv, theme: theme}
}

// Update renders hints column-major, menuRows per column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	_, _ = fmt.Fprint(m, strings.Join(menuLines(hints, m.theme), "\n"))
}

func menuLines(hints []MenuHint, theme *Theme) []string {
	rows := min(len(hints), menuRows)
	lines := make([]string, rows)
	for i, h := range hints {
		color := theme.MenuKeyColor
		if h.Numeric {
			color = theme.NumericKeyColor
		}
		cell := fmt.Sprintf("[%s::b]<%s>[-:-:-] %-16s", colorName(color), h.Key, h.Description)
		lines[i%menuRows] += cell
	}
	return lines
}

// Crumbs shows the page stack.
type Crumbs struct {
	*tview.TextView
	theme *Theme
}

// NewCrumbs creates the breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &Crumbs{TextView: tv, theme: theme}
}

// Update renders stack with the last entry highlighted.
func (c *Crumbs) Update(stack []string) {
	c.Clear()
	for i, name := range stack {
		fg, bg, attr := c.theme.CrumbInactiveFg, c.theme.CrumbInactiveBg, ""
		if i == len(stack)-1 {
			fg, bg, attr = c.theme.CrumbActiveFg, c.theme.CrumbActiveBg, "b"
		}
		_, _ = fmt.Fprintf(c, "[%s:%s:%s] <%s> [-:-:-] ", colorName(fg), colorName(bg), attr, name)
	}
}

// colorName returns a tview color tag for c.
func colorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
