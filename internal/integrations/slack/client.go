package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"

	"slackassist/internal/metrics"
)

// Client wraps the Slack Web API with pagination and the error tolerance the
// poller needs. It authenticates as a user (xoxp token), not a bot, so it
// sees the same conversations the user does.
type Client struct {
	api      *slack.Client
	userID   string
	userName string
	teamID   string
}

func NewClient(token string) *Client {
	return &Client{api: slack.New(token)}
}

// Authenticate verifies the token and remembers the authenticated user.
func (c *Client) Authenticate(ctx context.Context) error {
	resp, err := c.api.AuthTestContext(ctx)
	c.observe("auth.test", err)
	if err != nil {
		return fmt.Errorf("slack authentication failed: %w", err)
	}

	c.userID = resp.UserID
	c.userName = resp.User
	c.teamID = resp.TeamID

	slog.Info("Authenticated with Slack",
		slog.String("user", c.userName),
		slog.String("user_id", c.userID))
	return nil
}

func (c *Client) UserID() string   { return c.userID }
func (c *Client) UserName() string { return c.userName }

// ListConversations fetches every conversation the user is a member of,
// across all four conversation types, following pagination cursors.
func (c *Client) ListConversations(ctx context.Context) ([]slack.Channel, error) {
	var conversations []slack.Channel
	cursor := ""

	for {
		channels, nextCursor, err := c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Types:           []string{"public_channel", "private_channel", "mpim", "im"},
			ExcludeArchived: true,
			Limit:           200,
			Cursor:          cursor,
		})
		c.observe("conversations.list", err)
		if err != nil {
			return nil, fmt.Errorf("failed to list conversations: %w", err)
		}

		for _, ch := range channels {
			// DMs carry no is_member flag; membership is implied.
			if ch.IsMember || ch.IsIM || ch.IsMpIM {
				conversations = append(conversations, ch)
			}
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	slog.Debug("Listed conversations", slog.Int("count", len(conversations)))
	return conversations, nil
}

// ChannelHistory fetches up to limit messages newer than oldest, following
// pagination cursors. Channels the user has lost access to yield an empty
// slice rather than an error so one bad channel cannot stall a sync pass.
func (c *Client) ChannelHistory(ctx context.Context, channelID, oldest string, limit int) ([]slack.Message, error) {
	var messages []slack.Message
	cursor := ""

	for {
		pageLimit := limit - len(messages)
		if pageLimit > 100 {
			pageLimit = 100
		}

		resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Oldest:    oldest,
			Cursor:    cursor,
			Limit:     pageLimit,
		})
		c.observe("conversations.history", err)
		if err != nil {
			if isAccessError(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to fetch history for %s: %w", channelID, err)
		}

		messages = append(messages, resp.Messages...)

		if len(messages) >= limit || resp.ResponseMetaData.NextCursor == "" {
			break
		}
		cursor = resp.ResponseMetaData.NextCursor
	}

	return messages, nil
}

// ThreadReplies fetches the replies of a thread, excluding the parent.
func (c *Client) ThreadReplies(ctx context.Context, channelID, threadTS string) ([]slack.Message, error) {
	msgs, _, _, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
		Limit:     100,
		Inclusive: true,
	})
	c.observe("conversations.replies", err)
	if err != nil {
		if isAccessError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch thread %s: %w", threadTS, err)
	}

	var replies []slack.Message
	for _, m := range msgs {
		if m.Timestamp == threadTS {
			continue
		}
		replies = append(replies, m)
	}
	return replies, nil
}

func (c *Client) UserInfo(ctx context.Context, userID string) (*slack.User, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	c.observe("users.info", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user, nil
}

// ListReminders fetches all reminders of the authenticated user.
func (c *Client) ListReminders(ctx context.Context) ([]*slack.Reminder, error) {
	reminders, err := c.api.ListReminders()
	c.observe("reminders.list", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

// SearchHit is one result from the Slack search API, flattened for the
// search service.
type SearchHit struct {
	ChannelID   string
	ChannelName string
	UserID      string
	UserName    string
	TS          string
	ThreadTS    string
	Text        string
	Permalink   string
}

// SearchMessages runs a query through Slack's own search index. Requires the
// search:read scope.
func (c *Client) SearchMessages(ctx context.Context, query string, count int) ([]SearchHit, error) {
	result, err := c.api.SearchMessagesContext(ctx, query, slack.SearchParameters{
		Sort:          "timestamp",
		SortDirection: "desc",
		Count:         count,
	})
	c.observe("search.messages", err)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	hits := make([]SearchHit, 0, len(result.Matches))
	for _, m := range result.Matches {
		hits = append(hits, SearchHit{
			ChannelID:   m.Channel.ID,
			ChannelName: m.Channel.Name,
			UserID:      m.User,
			UserName:    m.Username,
			TS:          m.Timestamp,
			Text:        m.Text,
			Permalink:   m.Permalink,
		})
	}
	return hits, nil
}

func (c *Client) observe(method string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SlackAPICalls.WithLabelValues(method, status).Inc()
}

// isAccessError matches the Slack errors that mean a channel exists but is
// not readable with this token.
func isAccessError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "channel_not_found") || strings.Contains(msg, "not_in_channel")
}
