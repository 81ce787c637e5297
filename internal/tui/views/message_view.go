package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/At1ass/VK-TUI/internal/domain"
)

// MessageView displays the active conversation window.
type MessageView struct {
	*tview.TextView
	messages []domain.ChatMessage
	cursor   int
}

// NewMessageView creates a new message view.
func NewMessageView() *MessageView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &MessageView{TextView: tv, cursor: -1}
}

// SetChatName updates the title with the chat name.
func (mv *MessageView) SetChatName(name string) {
	mv.SetTitle(fmt.Sprintf(" %s ", name))
}

// Update refreshes the view. Messages arrive oldest first and are
// rendered in that order.
func (mv *MessageView) Update(msgs []domain.ChatMessage) {
	atTail := mv.cursor < 0 || mv.cursor >= len(mv.messages)-1
	mv.messages = msgs
	mv.Clear()

	for _, m := range msgs {
		_, _ = fmt.Fprint(mv, renderMessage(m))
	}
	if atTail {
		mv.ScrollToEnd()
	}
}

// CursorUp moves the message cursor toward older messages.
func (mv *MessageView) CursorUp() {
	if mv.cursor < 0 {
		mv.cursor = len(mv.messages) - 1
	}
	if mv.cursor > 0 {
		mv.cursor--
	}
}

// CursorDown moves the message cursor toward newer messages.
func (mv *MessageView) CursorDown() {
	if mv.cursor >= 0 && mv.cursor < len(mv.messages)-1 {
		mv.cursor++
	}
}

// AtTop reports whether the cursor sits on the oldest loaded message,
// which the app uses as the trigger to load more history.
func (mv *MessageView) AtTop() bool {
	return mv.cursor == 0
}

// Selected returns the message under the cursor.
func (mv *MessageView) Selected() (domain.ChatMessage, bool) {
	if mv.cursor < 0 || mv.cursor >= len(mv.messages) {
		return domain.ChatMessage{}, false
	}
	return mv.messages[mv.cursor], true
}

func renderMessage(m domain.ChatMessage) string {
	sender := m.FromName
	if m.IsOutgoing {
		sender = "You"
	}

	var marks []string
	if m.IsEdited {
		marks = append(marks, "edited")
	}
	if m.IsOutgoing {
		if m.IsRead {
			marks = append(marks, "read")
		} else {
			marks = append(marks, "sent")
		}
	}
	suffix := ""
	if len(marks) > 0 {
		suffix = " [::d](" + strings.Join(marks, ", ") + ")[-:-:-]"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[::b]%s[-:-:-] [::d]%s[-:-:-]%s\n", sender, formatTimestamp(m.Timestamp), suffix)

	if m.Reply != nil {
		fmt.Fprintf(&sb, "  | %s: %s\n", m.Reply.From, firstLine(m.Reply.Text))
	}
	if m.Text != "" {
		sb.WriteString(tview.Escape(m.Text))
		sb.WriteString("\n")
	}
	for _, a := range m.Attachments {
		fmt.Fprintf(&sb, "  [%s] %s\n", a.Kind, a.Title)
	}
	renderForwards(&sb, m.Forwards, 1)
	sb.WriteString("\n")
	return sb.String()
}

func renderForwards(sb *strings.Builder, fwds []domain.ForwardItem, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range fwds {
		fmt.Fprintf(sb, "%s> %s: %s\n", indent, f.From, firstLine(f.Text))
		renderForwards(sb, f.Nested, depth+1)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return tview.Escape(s)
}
