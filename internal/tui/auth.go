package tui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/At1ass/VK-TUI/internal/tui/views"
	"github.com/At1ass/VK-TUI/internal/vkapi"
)

// RunAuth runs the standalone sign-in screen and persists the acquired
// token to tokenPath. Returns an error when the user quits without
// authorizing. This runs before the main application is assembled,
// since every remote component needs the token at construction time.
func RunAuth(tokenPath string) error {
	app := tview.NewApplication()
	av := views.NewAuthView(vkapi.AuthURL())

	var done bool
	av.SetOnSubmit(func(raw string) {
		td, err := vkapi.ParseRedirectURL(raw)
		if err != nil {
			av.ShowError(err.Error())
			return
		}
		if err := vkapi.SaveToken(tokenPath, td); err != nil {
			av.ShowError(err.Error())
			return
		}
		done = true
		app.Stop()
	})

	if err := app.SetRoot(av, true).Run(); err != nil {
		return err
	}
	if !done {
		return fmt.Errorf("sign-in aborted")
	}
	return nil
}
