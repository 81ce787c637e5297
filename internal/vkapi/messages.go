package vkapi

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
)

// FetchConversations returns a page of the conversation list with
// profiles (extended mode).
func (c *Client) FetchConversations(ctx context.Context, offset, count int) (*ConversationsResponse, error) {
	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("count", strconv.Itoa(count))
	params.Set("extended", "1")

	var resp ConversationsResponse
	if err := c.call(ctx, "messages.getConversations", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchHistory returns a tail-anchored page of a conversation's history.
func (c *Client) FetchHistory(ctx context.Context, peerID int64, offset, count int) (*HistoryResponse, error) {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(peerID, 10))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("count", strconv.Itoa(count))
	params.Set("extended", "1")

	var resp HistoryResponse
	if err := c.call(ctx, "messages.getHistory", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchHistoryAround returns a window centered on messageID. The server
// interprets a negative offset as "start above the anchor".
func (c *Client) FetchHistoryAround(ctx context.Context, peerID, messageID int64, count int) (*HistoryResponse, error) {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(peerID, 10))
	params.Set("start_message_id", strconv.FormatInt(messageID, 10))
	params.Set("offset", strconv.Itoa(-count/2))
	params.Set("count", strconv.Itoa(count))
	params.Set("extended", "1")

	var resp HistoryResponse
	if err := c.call(ctx, "messages.getHistory", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchHistoryFrom pages history relative to startMessageID. Used by the
// executor for LoadOlder.
func (c *Client) FetchHistoryFrom(ctx context.Context, peerID, startMessageID int64, offset, count int) (*HistoryResponse, error) {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(peerID, 10))
	params.Set("start_message_id", strconv.FormatInt(startMessageID, 10))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("count", strconv.Itoa(count))
	params.Set("extended", "1")

	var resp HistoryResponse
	if err := c.call(ctx, "messages.getHistory", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, peerID int64, text string) (*SentMessage, error) {
	return c.send(ctx, peerID, text, nil)
}

// SendReply sends text replying to an existing message.
func (c *Client) SendReply(ctx context.Context, peerID int64, text string, replyTo int64) (*SentMessage, error) {
	extra := url.Values{}
	extra.Set("reply_to", strconv.FormatInt(replyTo, 10))
	return c.send(ctx, peerID, text, extra)
}

// SendForward sends a comment with forwarded messages attached.
func (c *Client) SendForward(ctx context.Context, peerID int64, comment string, messageIDs []int64) (*SentMessage, error) {
	ids := make([]string, len(messageIDs))
	for i, id := range messageIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	extra := url.Values{}
	extra.Set("forward_messages", strings.Join(ids, ","))
	return c.send(ctx, peerID, comment, extra)
}

func (c *Client) send(ctx context.Context, peerID int64, text string, extra url.Values) (*SentMessage, error) {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(peerID, 10))
	params.Set("message", text)
	// random_id deduplicates retried sends server-side.
	params.Set("random_id", strconv.FormatInt(rand.Int63(), 10))
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	// The single-peer form of messages.send returns the new global id
	// as a bare integer; the cmid is learned later via getById.
	var id int64
	if err := c.call(ctx, "messages.send", params, &id); err != nil {
		return nil, err
	}
	return &SentMessage{MessageID: id}, nil
}

// EditMessage replaces the text of an existing message. Either the
// global id or the cmid may identify it; cmid wins when both are set,
// matching edit-after-send where only the cmid is known.
func (c *Client) EditMessage(ctx context.Context, peerID, messageID, cmid int64, text string) error {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(peerID, 10))
	params.Set("message", text)
	if cmid != 0 {
		params.Set("conversation_message_id", strconv.FormatInt(cmid, 10))
	} else {
		params.Set("message_id", strconv.FormatInt(messageID, 10))
	}
	return c.call(ctx, "messages.edit", params, nil)
}

// DeleteMessage deletes a message, optionally for all participants.
func (c *Client) DeleteMessage(ctx context.Context, messageID int64, forAll bool) error {
	params := url.Values{}
	params.Set("message_ids", strconv.FormatInt(messageID, 10))
	if forAll {
		params.Set("delete_for_all", "1")
	}
	return c.call(ctx, "messages.delete", params, nil)
}

// SearchMessages searches message text globally or within one peer.
func (c *Client) SearchMessages(ctx context.Context, query string, peerID int64, count int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	params.Set("extended", "1")
	if peerID != 0 {
		params.Set("peer_id", strconv.FormatInt(peerID, 10))
	}

	var resp SearchResponse
	if err := c.call(ctx, "messages.search", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarkAsRead clears the unread counter of a conversation.
func (c *Client) MarkAsRead(ctx context.Context, peerID int64) error {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(peerID, 10))
	return c.call(ctx, "messages.markAsRead", params, nil)
}

// FetchMessageByID fetches full message details (cmid, attachments,
// reply, forwards) for one message.
func (c *Client) FetchMessageByID(ctx context.Context, messageID int64) (*Message, error) {
	params := url.Values{}
	params.Set("message_ids", strconv.FormatInt(messageID, 10))
	params.Set("extended", "1")

	var resp struct {
		Count int       `json:"count"`
		Items []Message `json:"items"`
	}
	if err := c.call(ctx, "messages.getById", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("messages.getById: message %d not found", messageID)
	}
	return &resp.Items[0], nil
}
