package vkapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// methodServer fakes the method endpoint: handlers are keyed by method
// name, request form values are recorded.
type methodServer struct {
	*httptest.Server
	lastMethod string
	lastForm   map[string]string
}

func newMethodServer(t *testing.T, handlers map[string]string) *methodServer {
	t.Helper()
	ms := &methodServer{}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		ms.lastMethod = r.URL.Path[1:]
		ms.lastForm = map[string]string{}
		for k := range r.Form {
			ms.lastForm[k] = r.Form.Get(k)
		}
		body, ok := handlers[ms.lastMethod]
		if !ok {
			t.Errorf("unexpected method %q", ms.lastMethod)
			body = `{"error":{"error_code":3,"error_msg":"unknown method"}}`
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ms.Close)
	return ms
}

func TestCallSendsTokenAndVersion(t *testing.T) {
	srv := newMethodServer(t, map[string]string{
		"messages.getConversations": `{"response":{"count":0,"items":[]}}`,
	})
	c := New("tok123", WithBaseURL(srv.URL))

	if _, err := c.FetchConversations(context.Background(), 0, 20); err != nil {
		t.Fatal(err)
	}

	if srv.lastForm["access_token"] != "tok123" {
		t.Errorf("access_token = %q", srv.lastForm["access_token"])
	}
	if srv.lastForm["v"] != APIVersion {
		t.Errorf("v = %q, want %q", srv.lastForm["v"], APIVersion)
	}
	if srv.lastForm["extended"] != "1" {
		t.Error("extended mode not requested")
	}
}

func TestCallDecodesEnvelope(t *testing.T) {
	srv := newMethodServer(t, map[string]string{
		"messages.getHistory": `{"response":{"count":2,"items":[
			{"id":103,"peer_id":42,"text":"newest"},
			{"id":102,"peer_id":42,"text":"older","out":1}
		],"conversations":[{"peer":{"id":42},"out_read":102}]}}`,
	})
	c := New("tok", WithBaseURL(srv.URL))

	resp, err := c.FetchHistory(context.Background(), 42, 0, 50)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 || len(resp.Items) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Items[0].ID != 103 || resp.Items[1].Out != 1 {
		t.Errorf("items = %+v", resp.Items)
	}
	if resp.Conversations[0].OutRead != 102 {
		t.Errorf("out_read = %d, want 102", resp.Conversations[0].OutRead)
	}
}

func TestCallMapsAPIError(t *testing.T) {
	srv := newMethodServer(t, map[string]string{
		"messages.send": `{"error":{"error_code":5,"error_msg":"User authorization failed"}}`,
	})
	c := New("stale", WithBaseURL(srv.URL))

	_, err := c.SendText(context.Background(), 42, "hi")
	if err == nil {
		t.Fatal("want error")
	}
	if !IsAuthError(err) {
		t.Errorf("IsAuthError = false for code 5: %v", err)
	}
}

func TestIsAuthErrorNonAuthCodes(t *testing.T) {
	srv := newMethodServer(t, map[string]string{
		"messages.send": `{"error":{"error_code":9,"error_msg":"Flood control"}}`,
	})
	c := New("tok", WithBaseURL(srv.URL))

	_, err := c.SendText(context.Background(), 42, "hi")
	if err == nil {
		t.Fatal("want error")
	}
	if IsAuthError(err) {
		t.Error("flood control must not be classified as auth error")
	}
}

func TestSendReturnsBareID(t *testing.T) {
	srv := newMethodServer(t, map[string]string{
		"messages.send": `{"response":12345}`,
	})
	c := New("tok", WithBaseURL(srv.URL))

	sent, err := c.SendText(context.Background(), 42, "hi")
	if err != nil {
		t.Fatal(err)
	}
	if sent.MessageID != 12345 {
		t.Errorf("MessageID = %d, want 12345", sent.MessageID)
	}
	if srv.lastForm["random_id"] == "" {
		t.Error("random_id missing from send")
	}
}

func TestEditPrefersCMID(t *testing.T) {
	srv := newMethodServer(t, map[string]string{
		"messages.edit": `{"response":1}`,
	})
	c := New("tok", WithBaseURL(srv.URL))

	if err := c.EditMessage(context.Background(), 42, 500, 7, "new text"); err != nil {
		t.Fatal(err)
	}
	if srv.lastForm["conversation_message_id"] != "7" {
		t.Errorf("conversation_message_id = %q, want 7", srv.lastForm["conversation_message_id"])
	}
	if _, set := srv.lastForm["message_id"]; set {
		t.Error("message_id must be omitted when cmid is known")
	}

	if err := c.EditMessage(context.Background(), 42, 500, 0, "new text"); err != nil {
		t.Fatal(err)
	}
	if srv.lastForm["message_id"] != "500" {
		t.Errorf("message_id = %q, want 500 without cmid", srv.lastForm["message_id"])
	}
}

func TestAcquirePollServerRequestsPTS(t *testing.T) {
	srv := newMethodServer(t, map[string]string{
		"messages.getLongPollServer": `{"response":{"key":"abc","server":"im.vk.com/im123","ts":1700000000,"pts":42}}`,
	})
	c := New("tok", WithBaseURL(srv.URL))

	lp, err := c.AcquirePollServer(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if lp.Key != "abc" || lp.TS.String() != "1700000000" || lp.PTS != 42 {
		t.Errorf("server = %+v", lp)
	}
	if srv.lastForm["need_pts"] != "1" {
		t.Error("need_pts not requested")
	}
}

func TestPollQueryAndDecode(t *testing.T) {
	var gotQuery map[string]string
	lp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		fmt.Fprint(w, `{"ts":1700000001,"pts":43,"updates":[[4,1001,1,42,1700000000,"hi"]]}`)
	}))
	defer lp.Close()

	c := New("tok")
	srv := &LongPollServer{Key: "k&k", Server: lp.URL, TS: json.Number("1700000000")}

	resp, err := c.Poll(context.Background(), srv, 25)
	if err != nil {
		t.Fatal(err)
	}

	if gotQuery["act"] != "a_check" || gotQuery["key"] != "k&k" || gotQuery["ts"] != "1700000000" {
		t.Errorf("query = %v", gotQuery)
	}
	if gotQuery["wait"] != "25" || gotQuery["mode"] != "234" {
		t.Errorf("wait/mode = %q/%q", gotQuery["wait"], gotQuery["mode"])
	}
	if resp.TS.String() != "1700000001" || resp.PTS != 43 || len(resp.Updates) != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestPollDeadlineScalesWithWait(t *testing.T) {
	var remaining time.Duration
	lp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if deadline, ok := r.Context().Deadline(); ok {
			remaining = time.Until(deadline)
		}
		fmt.Fprint(w, `{"ts":1700000001,"updates":[]}`)
	}))
	defer lp.Close()

	c := New("tok")
	srv := &LongPollServer{Key: "k", Server: lp.URL, TS: json.Number("1700000000")}

	// A hold longer than the method-call timeout must not be cut short
	// client-side.
	if _, err := c.Poll(context.Background(), srv, 60); err != nil {
		t.Fatal(err)
	}
	if remaining <= 35*time.Second {
		t.Errorf("poll deadline leaves %v, want more than the method-call timeout", remaining)
	}
	if remaining > 60*time.Second+pollHeadroom {
		t.Errorf("poll deadline leaves %v, want at most wait+headroom", remaining)
	}
}
