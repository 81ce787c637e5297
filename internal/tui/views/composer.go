package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ComposeMode is what Enter means in the composer right now.
type ComposeMode int

const (
	// ComposeSend sends the text as a new message.
	ComposeSend ComposeMode = iota
	// ComposeReply sends the text replying to the target message.
	ComposeReply
	// ComposeEdit replaces the target message's text.
	ComposeEdit
)

// Composer is the message input. It owns the send/reply/edit mode and
// the target message the mode refers to; the shell only decides when a
// mode begins and receives the finished submission.
type Composer struct {
	*tview.InputField

	mode       ComposeMode
	targetID   int64
	targetCMID int64
	onSubmit   func(mode ComposeMode, targetID, targetCMID int64, text string)
}

// NewComposer creates a composer in plain send mode.
func NewComposer() *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)

	c := &Composer{InputField: input}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			c.submit()
		}
	})

	return c
}

// SetOnSubmit sets the callback fired when text is submitted. The
// composer resets to send mode after each submission.
func (c *Composer) SetOnSubmit(fn func(mode ComposeMode, targetID, targetCMID int64, text string)) {
	c.onSubmit = fn
}

// BeginReply switches to reply mode targeting the given message.
func (c *Composer) BeginReply(messageID int64) {
	c.mode = ComposeReply
	c.targetID = messageID
	c.targetCMID = 0
	c.SetLabel(" reply > ")
}

// BeginEdit switches to edit mode, prefilled with the current text.
func (c *Composer) BeginEdit(messageID, cmid int64, text string) {
	c.mode = ComposeEdit
	c.targetID = messageID
	c.targetCMID = cmid
	c.SetLabel(" edit > ")
	c.SetText(text)
}

// Reset drops any pending reply/edit and clears the input.
func (c *Composer) Reset() {
	c.mode = ComposeSend
	c.targetID = 0
	c.targetCMID = 0
	c.SetLabel(" > ")
	c.SetText("")
}

// Mode returns the active compose mode.
func (c *Composer) Mode() ComposeMode {
	return c.mode
}

func (c *Composer) submit() {
	text := c.GetText()
	if text == "" || c.onSubmit == nil {
		return
	}
	mode, id, cmid := c.mode, c.targetID, c.targetCMID
	c.Reset()
	c.onSubmit(mode, id, cmid, text)
}
