package longpoll

import (
	"encoding/json"
	"testing"

	"github.com/At1ass/VK-TUI/internal/core"
)

func TestParseUpdate(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want core.Event
	}{
		{
			name: "incoming direct message",
			raw:  `[4, 1001, 1, 42, 1700000000, "hello"]`,
			want: core.NewMessage{MessageID: 1001, PeerID: 42, FromID: 42, Timestamp: 1700000000, Text: "hello"},
		},
		{
			name: "outgoing message",
			raw:  `[4, 1002, 3, 42, 1700000001, "sent from phone"]`,
			want: core.NewMessage{MessageID: 1002, PeerID: 42, Timestamp: 1700000001, Text: "sent from phone", IsOutgoing: true},
		},
		{
			name: "group chat message carries sender in extra",
			raw:  `[4, 1003, 1, 2000000005, 1700000002, "team msg", {"from": "77"}]`,
			want: core.NewMessage{MessageID: 1003, PeerID: 2000000005, FromID: 77, Timestamp: 1700000002, Text: "team msg"},
		},
		{
			name: "edit",
			raw:  `[5, 1001, 0, 42, 1700000010, "hello (edited)"]`,
			want: core.MessageEditedRemote{PeerID: 42, MessageID: 1001},
		},
		{
			name: "delete via flags",
			raw:  `[2, 1001, 128, 42]`,
			want: core.MessageDeletedRemote{PeerID: 42, MessageID: 1001},
		},
		{
			name: "outgoing read receipt",
			raw:  `[7, 42, 102]`,
			want: core.MessageRead{PeerID: 42, MessageID: 102},
		},
		{
			name: "online",
			raw:  `[8, -77, 0, 1700000020]`,
			want: core.UserOnline{UserID: 77},
		},
		{
			name: "offline",
			raw:  `[9, -77, 0, 1700000030]`,
			want: core.UserOffline{UserID: 77},
		},
		{
			name: "typing direct",
			raw:  `[61, 77, 1]`,
			want: core.UserTyping{PeerID: 77, UserID: 77},
		},
		{
			name: "typing in group chat",
			raw:  `[62, 77, 5]`,
			want: core.UserTyping{PeerID: 2000000005, UserID: 77},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseUpdate(json.RawMessage(tc.raw))
			if !ok {
				t.Fatal("ParseUpdate returned ok=false")
			}
			if got != tc.want {
				t.Errorf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestParseUpdateIgnored(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"incoming read receipt", `[6, 42, 1001]`},
		{"flag set without delete bit", `[2, 1001, 8, 42]`},
		{"unknown code", `[114, 1, 2]`},
		{"empty array", `[]`},
		{"not an array", `{"ts": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if evt, ok := ParseUpdate(json.RawMessage(tc.raw)); ok {
				t.Errorf("got %#v, want ignored", evt)
			}
		})
	}
}
