package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	qrcode "github.com/skip2/go-qrcode"
)

// AuthView walks the user through the browser OAuth flow: it shows the
// authorization URL (plus a scannable QR of it for phone browsers) and
// takes the pasted redirect URL back.
type AuthView struct {
	*tview.Flex
	text     *tview.TextView
	input    *tview.InputField
	onSubmit func(redirectURL string)
}

// NewAuthView creates a new auth view for the given authorization URL.
func NewAuthView(authURL string) *AuthView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	input := tview.NewInputField().
		SetLabel(" Redirect URL: ").
		SetFieldWidth(0)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(tv, 0, 1, false).
		AddItem(input, 1, 0, true)
	flex.SetBorder(true).SetTitle(" Sign In ")

	av := &AuthView{
		Flex:  flex,
		text:  tv,
		input: input,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && av.onSubmit != nil {
			if raw := input.GetText(); raw != "" {
				av.onSubmit(raw)
			}
		}
	})

	ascii := renderQR(authURL)
	_, _ = fmt.Fprintf(tv,
		"\n  Open this URL in a browser and sign in:\n\n  [::b]%s[-:-:-]\n\n%s\n  After authorizing, paste the full blank.html URL below.",
		authURL, ascii)

	return av
}

// SetOnSubmit sets the callback fired with the pasted redirect URL.
func (av *AuthView) SetOnSubmit(fn func(redirectURL string)) {
	av.onSubmit = fn
}

// ShowError surfaces a parse failure without leaving the view.
func (av *AuthView) ShowError(msg string) {
	av.input.SetText("")
	av.input.SetLabel(fmt.Sprintf(" [red]%s[-] Redirect URL: ", msg))
}

// renderQR converts a string to a compact ASCII QR code using Unicode
// half-block characters.
func renderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "  (QR generation failed: " + err.Error() + ")"
	}
	qr.DisableBorder = false

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
				sb.WriteRune('\u2588') // █
			case top && !bot:
				sb.WriteRune('\u2580') // ▀
			case !top && bot:
				sb.WriteRune('\u2584') // ▄
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}

	return sb.String()
}
