package vkapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Long-poll mode flags: attachments(2) + extended events(8) + pts(32) +
// random_id(64) + extra fields(128).
const longPollMode = 234

// AcquirePollServer obtains a fresh long-poll server descriptor
// (endpoint, session key, resumption cursor).
func (c *Client) AcquirePollServer(ctx context.Context) (*LongPollServer, error) {
	params := url.Values{}
	params.Set("lp_version", "3")
	// need_pts enables getLongPollHistory-based gap recovery.
	params.Set("need_pts", "1")

	var srv LongPollServer
	if err := c.call(ctx, "messages.getLongPollServer", params, &srv); err != nil {
		return nil, err
	}
	return &srv, nil
}

// pollHeadroom is added on top of the server-side hold when bounding a
// poll request, covering connection setup and response transfer.
const pollHeadroom = 10 * time.Second

// Poll issues one long-wait poll against the given server descriptor.
// wait is the server-side hold in seconds; the request deadline is
// derived from it so a long wait never times out client-side.
func (c *Client) Poll(ctx context.Context, srv *LongPollServer, wait int) (*LongPollResponse, error) {
	if wait <= 0 {
		wait = 25
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(wait)*time.Second+pollHeadroom)
	defer cancel()
	endpoint := srv.Server
	// The API hands the server out without a scheme.
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u := fmt.Sprintf("%s?act=a_check&key=%s&ts=%s&wait=%d&mode=%d&version=3",
		endpoint, url.QueryEscape(srv.Key), srv.TS.String(), wait, longPollMode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}

	resp, err := c.pollHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("long poll: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out LongPollResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("long poll: decode response: %w", err)
	}
	return &out, nil
}

// HistorySince replays events missed since the given cursor. Used for
// bounded gap recovery after a failed poll.
func (c *Client) HistorySince(ctx context.Context, ts string, pts int64) (*LongPollHistory, error) {
	params := url.Values{}
	params.Set("ts", ts)
	if pts > 0 {
		params.Set("pts", strconv.FormatInt(pts, 10))
	}
	params.Set("lp_version", "3")

	var hist LongPollHistory
	if err := c.call(ctx, "messages.getLongPollHistory", params, &hist); err != nil {
		return nil, err
	}
	return &hist, nil
}
