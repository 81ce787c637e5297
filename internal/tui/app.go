// Package tui is the terminal front end: a tview application driven by
// the event bus on one side and the command executor on the other.
package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/At1ass/VK-TUI/internal/bus"
	"github.com/At1ass/VK-TUI/internal/core"
	"github.com/At1ass/VK-TUI/internal/domain"
	"github.com/At1ass/VK-TUI/internal/tui/model"
	"github.com/At1ass/VK-TUI/internal/tui/views"
)

// App is the main TUI application shell. All state mutation happens on
// the single bus-consumer goroutine; the tview event loop only reads
// snapshots through the view model.
type App struct {
	app   *tview.Application
	pages *tview.Pages
	vm    *model.ViewModel
	bus   *bus.Bus
	log   *zap.Logger

	statusBar *views.StatusBar
	chatList  *views.ChatList
	msgView   *views.MessageView
	composer  *views.Composer
	searchV   *views.SearchView

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the TUI application.
func New(b *bus.Bus, exec model.Commander, sessionName string, log *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		vm:        model.NewViewModel(exec),
		bus:       b,
		log:       log.Named("tui"),
		statusBar: views.NewStatusBar(),
		chatList:  views.NewChatList(),
		msgView:   views.NewMessageView(),
		composer:  views.NewComposer(),
		searchV:   views.NewSearchView(),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetSession(sessionName)
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupCallbacks() {
	a.chatList.SetSelectedFunc(func(row, col int) {
		if peer := a.chatList.SelectedChat(); peer != 0 {
			a.openChat(peer)
		}
	})

	a.composer.SetOnSubmit(func(mode views.ComposeMode, targetID, targetCMID int64, text string) {
		switch mode {
		case views.ComposeReply:
			a.vm.Reply(a.ctx, targetID, text)
		case views.ComposeEdit:
			a.vm.Edit(a.ctx, targetID, targetCMID, text)
		default:
			a.vm.Send(a.ctx, text)
		}
		a.app.SetFocus(a.msgView)
	})

	a.searchV.SetOnQuery(func(query string) {
		scoped := a.vm.SelectedPeer() != 0
		a.vm.Search(a.ctx, query, scoped)
	})
	a.searchV.SetOnSelect(func(res domain.SearchResult) {
		a.vm.OpenChatAround(a.ctx, res.PeerID, res.MessageID)
		a.msgView.SetChatName(res.ChatTitle)
		a.pages.SwitchToPage("chat")
		a.app.SetFocus(a.msgView)
	})
}

func (a *App) setupLayout() {
	chatFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.msgView, 0, 1, false).
		AddItem(a.composer, 1, 0, false)

	a.pages.AddPage("chats", a.chatList, true, true)
	a.pages.AddPage("chat", chatFlex, true, false)
	a.pages.AddPage("search", a.searchV, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	currentPage, _ := a.pages.GetFrontPage()

	if event.Key() == tcell.KeyEscape {
		switch currentPage {
		case "chat", "search":
			a.composer.Reset()
			a.pages.SwitchToPage("chats")
			a.app.SetFocus(a.chatList)
			return nil
		}
	}

	// Let text input widgets handle all keys normally.
	if _, ok := a.app.GetFocus().(*tview.InputField); ok {
		return event
	}

	if event.Key() != tcell.KeyRune {
		return event
	}

	switch event.Rune() {
	case 'q':
		a.app.Stop()
		return nil
	case 's':
		a.pages.SwitchToPage("search")
		a.app.SetFocus(a.searchV.Input())
		return nil
	}

	if currentPage != "chat" {
		return event
	}

	switch event.Rune() {
	case 'i':
		a.app.SetFocus(a.composer.InputField)
		return nil
	case 'k':
		if a.msgView.AtTop() {
			a.vm.LoadOlder(a.ctx)
		}
		a.msgView.CursorUp()
		return nil
	case 'j':
		a.msgView.CursorDown()
		return nil
	case 'r':
		if m, ok := a.msgView.Selected(); ok {
			a.composer.BeginReply(m.ID)
			a.app.SetFocus(a.composer.InputField)
		}
		return nil
	case 'e':
		if m, ok := a.msgView.Selected(); ok && m.IsOutgoing {
			a.composer.BeginEdit(m.ID, m.CMID, m.Text)
			a.app.SetFocus(a.composer.InputField)
		}
		return nil
	case 'd':
		if m, ok := a.msgView.Selected(); ok {
			a.vm.Delete(a.ctx, m.ID, false)
		}
		return nil
	case 'D':
		if m, ok := a.msgView.Selected(); ok {
			a.vm.Delete(a.ctx, m.ID, true)
		}
		return nil
	}

	return event
}

func (a *App) openChat(peerID int64) {
	a.composer.Reset()
	a.vm.OpenChat(a.ctx, peerID)
	a.msgView.SetChatName(a.vm.SelectedTitle())
	a.msgView.Update(nil)
	a.pages.SwitchToPage("chat")
	a.app.SetFocus(a.msgView)
}

// Run starts the TUI: it subscribes to the bus, requests the initial
// chat list and hands control to tview. Blocks until the user quits.
func (a *App) Run() error {
	events, detach := a.bus.Subscribe("")
	defer detach()

	go a.consume(events)
	go a.tick()

	a.vm.LoadChats(a.ctx, 0)

	defer a.cancel()
	return a.app.Run()
}

// consume is the single state-mutating goroutine: it folds every bus
// event into the view model, then schedules a redraw of whatever the
// event touched.
func (a *App) consume(events <-chan core.Event) {
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			a.vm.Apply(evt)
			a.app.QueueUpdateDraw(func() { a.refresh(evt) })
		case <-a.ctx.Done():
			return
		}
	}
}

// refresh re-renders the widgets an event can affect. Runs on the
// tview event loop.
func (a *App) refresh(evt core.Event) {
	switch e := evt.(type) {
	case core.ConversationsLoaded:
		a.chatList.Update(a.vm.Chats())

	case core.MessageEditedRemote:
		// The flat update has no new body; refetch the details.
		if e.PeerID == a.vm.SelectedPeer() {
			a.vm.RefreshMessage(a.ctx, e.MessageID)
		}
		a.msgView.Update(a.vm.Messages())

	case core.MessageEdited:
		a.vm.RefreshMessage(a.ctx, e.MessageID)
		a.msgView.Update(a.vm.Messages())

	case core.MessagesLoaded, core.MessageDeleted,
		core.MessageDetailsFetched, core.MessageDeletedRemote,
		core.MessageRead:
		a.msgView.Update(a.vm.Messages())

	case core.NewMessage:
		a.chatList.Update(a.vm.Chats())
		a.msgView.Update(a.vm.Messages())

	case core.SearchResultsLoaded:
		a.searchV.Update(a.vm.SearchResults())
		a.app.SetFocus(a.searchV.Table())

	case core.ConnectionStatus:
		a.statusBar.SetConnected(a.vm.Connected())

	case core.ResyncRequired:
		if a.vm.ConsumeResync() {
			a.vm.LoadChats(a.ctx, 0)
			if peer := a.vm.SelectedPeer(); peer != 0 {
				a.vm.OpenChat(a.ctx, peer)
			}
		}

	case core.UserOnline, core.UserOffline:
		a.chatList.Update(a.vm.Chats())

	case core.UserTyping:
		a.statusBar.SetTyping(a.vm.TypingNames())

	case core.ErrorEvent, core.SendFailed:
		if msg := a.vm.LastError(); msg != "" {
			a.vm.Flash.Set(msg, model.DefaultFlashTTL)
			a.statusBar.SetFlash(a.vm.Flash.Get())
		}
	}
}

// tick refreshes the time-sensitive parts of the status bar: the
// clock, flash expiry and the typing indicator TTL.
func (a *App) tick() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetFlash(a.vm.Flash.Get())
				a.statusBar.SetTyping(a.vm.TypingNames())
			})
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
