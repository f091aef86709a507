package slack

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"slackassist/internal/storage"
)

// ChannelType maps a Slack conversation to one of the four cached types.
func ChannelType(ch slack.Channel) string {
	switch {
	case ch.IsIM:
		return "im"
	case ch.IsMpIM:
		return "mpim"
	case ch.IsPrivate:
		return "private_channel"
	default:
		return "public_channel"
	}
}

// ChannelFromSlack converts a Slack conversation into its cached form. DMs
// have no name, so the peer user ID is used instead.
func ChannelFromSlack(ch slack.Channel) *storage.Channel {
	name := ch.Name
	if name == "" {
		name = ch.User
	}

	var createdAt time.Time
	if ch.Created > 0 {
		createdAt = ch.Created.Time()
	}

	return &storage.Channel{
		ID:          ch.ID,
		Name:        name,
		ChannelType: ChannelType(ch),
		IsArchived:  ch.IsArchived,
		CreatedAt:   createdAt,
		Metadata: marshalMetadata(map[string]interface{}{
			"topic":       ch.Topic.Value,
			"purpose":     ch.Purpose.Value,
			"num_members": ch.NumMembers,
			"creator":     ch.Creator,
		}),
	}
}

// MessageFromSlack converts a Slack message payload into its cached form.
// The message timestamp doubles as the creation time.
func MessageFromSlack(channelID string, msg slack.Message) *storage.Message {
	messageType := msg.Type
	if messageType == "" {
		messageType = "message"
	}

	return &storage.Message{
		ChannelID:   channelID,
		TS:          msg.Timestamp,
		UserID:      msg.User,
		Text:        msg.Text,
		ThreadTS:    msg.ThreadTimestamp,
		ReplyCount:  msg.ReplyCount,
		IsEdited:    msg.Edited != nil,
		MessageType: messageType,
		CreatedAt:   ParseTimestamp(msg.Timestamp),
		Metadata: marshalMetadata(map[string]interface{}{
			"client_msg_id": msg.ClientMsgID,
			"subtype":       msg.SubType,
			"bot_id":        msg.BotID,
			"team":          msg.Team,
		}),
	}
}

// ReactionsFromSlack expands Slack's per-emoji reaction summaries into one
// row per (emoji, user).
func ReactionsFromSlack(messageID int64, msg slack.Message) []storage.Reaction {
	var reactions []storage.Reaction
	for _, r := range msg.Reactions {
		for _, userID := range r.Users {
			reactions = append(reactions, storage.Reaction{
				MessageID: messageID,
				Name:      r.Name,
				UserID:    userID,
			})
		}
	}
	return reactions
}

func UserFromSlack(u *slack.User) *storage.User {
	return &storage.User{
		ID:          u.ID,
		Name:        u.Name,
		RealName:    u.RealName,
		DisplayName: u.Profile.DisplayName,
		IsBot:       u.IsBot,
		Metadata: marshalMetadata(map[string]interface{}{
			"tz":      u.TZ,
			"title":   u.Profile.Title,
			"deleted": u.Deleted,
		}),
	}
}

func ReminderFromSlack(r *slack.Reminder, fallbackUserID string) *storage.Reminder {
	userID := r.User
	if userID == "" {
		userID = fallbackUserID
	}

	reminder := &storage.Reminder{
		ID:        r.ID,
		UserID:    userID,
		Text:      r.Text,
		Recurring: r.Recurring,
		Metadata: marshalMetadata(map[string]interface{}{
			"creator": r.Creator,
		}),
	}
	if r.Time > 0 {
		t := time.Unix(int64(r.Time), 0)
		reminder.Time = &t
	}
	if r.CompleteTS > 0 {
		t := time.Unix(int64(r.CompleteTS), 0)
		reminder.CompleteTS = &t
	}
	return reminder
}

// ParseTimestamp converts a Slack "seconds.fraction" timestamp string to a
// time. Unparseable input yields the zero time.
func ParseTimestamp(ts string) time.Time {
	seconds := ts
	if i := strings.Index(ts, "."); i >= 0 {
		seconds = ts[:i]
	}

	unix, err := strconv.ParseInt(seconds, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

// marshalMetadata drops empty values and serializes the rest. An empty map
// serializes to the schema's default {}.
func marshalMetadata(fields map[string]interface{}) json.RawMessage {
	cleaned := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			if val != "" {
				cleaned[k] = val
			}
		case int:
			if val != 0 {
				cleaned[k] = val
			}
		case bool:
			if val {
				cleaned[k] = val
			}
		default:
			cleaned[k] = val
		}
	}

	data, err := json.Marshal(cleaned)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
