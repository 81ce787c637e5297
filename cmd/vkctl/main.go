// vkctl inspects a session's local mirror without starting the TUI or
// touching the network. Useful for scripting and debugging.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/At1ass/VK-TUI/internal/session"
	"github.com/At1ass/VK-TUI/internal/store"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	limitFlag := flag.Int("limit", 30, "maximum rows to print")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	dbPath := session.AppDBPath(sessionName)
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: no mirror for session %q (run vktui first)\n", sessionName)
		os.Exit(1)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	switch args[0] {
	case "chats":
		cmdChats(db, *limitFlag, *jsonFlag)
	case "messages":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: vkctl messages <peer-id>")
			os.Exit(1)
		}
		peerID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: bad peer id %q\n", args[1])
			os.Exit(1)
		}
		cmdMessages(db, peerID, *limitFlag, *jsonFlag)
	case "search":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: vkctl search <query> [peer-id]")
			os.Exit(1)
		}
		var peerID int64
		if len(args) >= 3 {
			peerID, _ = strconv.ParseInt(args[2], 10, 64)
		}
		cmdSearch(db, args[1], peerID, *limitFlag, *jsonFlag)
	case "cursor":
		cmdCursor(db, *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: vkctl [--session <name>] [--json] [--limit <n>] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  chats                   List mirrored conversations")
	fmt.Fprintln(os.Stderr, "  messages <peer-id>      List mirrored messages of a conversation")
	fmt.Fprintln(os.Stderr, "  search <query> [peer]   Full-text search the mirror")
	fmt.Fprintln(os.Stderr, "  cursor                  Show the persisted long-poll cursor")
}

func cmdChats(db *store.DB, limit int, jsonOut bool) {
	chats, err := db.ListChats(limit, 0)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(chats)
		return
	}
	for _, c := range chats {
		unread := ""
		if c.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d)", c.UnreadCount)
		}
		fmt.Printf("%-12d %s%s\n    %s  %s\n", c.PeerID, c.Title, unread,
			formatTime(c.LastMessageAt), c.LastMessagePreview)
	}
}

func cmdMessages(db *store.DB, peerID int64, limit int, jsonOut bool) {
	msgs, err := db.ListMessages(peerID, 0, limit)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(msgs)
		return
	}
	// ListMessages returns newest first; print oldest first.
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		from := m.FromName
		if m.IsOutgoing {
			from = "you"
		}
		edited := ""
		if m.IsEdited {
			edited = " (edited)"
		}
		fmt.Printf("%d  %s  %s%s: %s\n", m.MessageID, formatTime(m.Timestamp), from, edited, m.Body)
	}
}

func cmdSearch(db *store.DB, query string, peerID int64, limit int, jsonOut bool) {
	hits, err := db.SearchMessages(query, peerID, limit)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(hits)
		return
	}
	for _, h := range hits {
		fmt.Printf("%d in %d  %s  %s\n", h.Message.MessageID, h.Message.PeerID,
			formatTime(h.Message.Timestamp), h.Snippet)
	}
}

func cmdCursor(db *store.DB, jsonOut bool) {
	ts, pts, err := db.LoadCursor()
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(map[string]any{"ts": ts, "pts": pts})
		return
	}
	if ts == "" {
		fmt.Println("no cursor saved")
		return
	}
	fmt.Printf("ts:  %s\npts: %d\n", ts, pts)
}

func formatTime(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).Format("2006-01-02 15:04")
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
