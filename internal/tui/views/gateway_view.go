package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/floodline/internal/tui/ui"
	"github.com/rivo/tview"
	qrcode "github.com/skip2/go-qrcode"
)

// GatewayView shows the gateway URL as a QR code so a phone on the same
// network can open the offline-capable app.
type GatewayView struct {
	*tview.TextView
	theme *ui.Theme
	url   string
}

// NewGatewayView creates a new gateway view.
func NewGatewayView(theme *ui.Theme) *GatewayView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTitle(" Gateway ")
	tv.SetTitleColor(theme.TitleColor)

	return &GatewayView{TextView: tv, theme: theme}
}

// Name implements Component.
func (gv *GatewayView) Name() string { return "Gateway" }

// Start implements Component.
func (gv *GatewayView) Start() {}

// Stop implements Component.
func (gv *GatewayView) Stop() {}

// Hints implements Component.
func (gv *GatewayView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// SetAddr renders the QR code for the gateway listening on addr.
func (gv *GatewayView) SetAddr(addr string) {
	url := GatewayURL(addr)
	if url == gv.url {
		return
	}
	gv.url = url
	gv.Clear()
	if url == "" {
		_, _ = fmt.Fprint(gv, "\n\nGateway address unknown.")
		return
	}
	_, _ = fmt.Fprintf(gv, "\n  Open the app at [::b]%s[-:-:-]\n\n%s", url, RenderQR(url))
}

// GatewayURL turns a listen address into a browsable URL.
func GatewayURL(addr string) string {
	if addr == "" {
		return ""
	}
	if strings.HasPrefix(addr, "[::]:") || strings.HasPrefix(addr, "0.0.0.0:") {
		addr = "localhost" + addr[strings.LastIndex(addr, ":"):]
	}
	return "http://" + addr + "/"
}

// RenderQR converts a string to a compact ASCII QR code using Unicode
// half-block characters. Two bitmap rows become one terminal line.
func RenderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "  (QR generation failed: " + err.Error() + ")"
	}

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := false
			if y+1 < rows {
				bot = bitmap[y+1][x]
			}
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top && !bot:
				sb.WriteRune('▀')
			case !top && bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
