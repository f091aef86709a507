package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/slack-go/slack"

	slackapi "slackassist/internal/integrations/slack"
	"slackassist/internal/metrics"
	"slackassist/internal/storage"
)

const (
	historyLimit = 200

	// Channel lists and reminders change rarely compared to messages, so
	// they are refreshed on every tenth cycle only.
	slowRefreshEvery = 10
)

// SlackAPI is the slice of the Slack client the poller needs.
type SlackAPI interface {
	UserID() string
	ListConversations(ctx context.Context) ([]slack.Channel, error)
	ChannelHistory(ctx context.Context, channelID, oldest string, limit int) ([]slack.Message, error)
	ThreadReplies(ctx context.Context, channelID, threadTS string) ([]slack.Message, error)
	UserInfo(ctx context.Context, userID string) (*slack.User, error)
	ListReminders(ctx context.Context) ([]*slack.Reminder, error)
}

// Poller drives incremental sync: every cycle it pulls new messages from each
// cached channel, carrying a per-channel cursor so already-ingested messages
// are skipped.
type Poller struct {
	client   SlackAPI
	store    storage.Store
	interval time.Duration
	done     chan struct{}

	// userCache tracks Slack user IDs already upserted this process, so
	// users.info is called at most once per user.
	userCache map[string]bool
}

func NewPoller(client SlackAPI, store storage.Store, interval time.Duration) *Poller {
	return &Poller{
		client:    client,
		store:     store,
		interval:  interval,
		done:      make(chan struct{}),
		userCache: make(map[string]bool),
	}
}

// Start runs the poll loop until the context is cancelled or Stop is called.
// The first cycle runs immediately and includes the slow-refresh work.
func (p *Poller) Start(ctx context.Context) {
	slog.Info("Starting Slack poller", slog.Duration("interval", p.interval))

	p.runCycle(ctx, true)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	cycle := 1
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping Slack poller due to context cancellation")
			return
		case <-p.done:
			slog.Info("Stopping Slack poller")
			return
		case <-ticker.C:
			p.runCycle(ctx, cycle%slowRefreshEvery == 0)
			cycle++
		}
	}
}

// Stop signals the poll loop to exit.
func (p *Poller) Stop() {
	close(p.done)
}

func (p *Poller) runCycle(ctx context.Context, slowRefresh bool) {
	start := time.Now()

	if slowRefresh {
		if err := p.SyncChannels(ctx); err != nil {
			slog.Error("Channel sync failed", slog.Any("error", err))
		}
		if err := p.SyncReminders(ctx); err != nil {
			slog.Error("Reminder sync failed", slog.Any("error", err))
		}
	}

	if err := p.SyncAllMessages(ctx); err != nil {
		slog.Error("Message sync failed", slog.Any("error", err))
		metrics.PollCycles.WithLabelValues("error").Inc()
		return
	}

	metrics.PollCycles.WithLabelValues("success").Inc()
	slog.Debug("Poll cycle completed", slog.Duration("duration", time.Since(start)))
}

// SyncChannels refreshes the cached channel list from Slack.
func (p *Poller) SyncChannels(ctx context.Context) error {
	channels, err := p.client.ListConversations(ctx)
	if err != nil {
		return err
	}

	for _, ch := range channels {
		if err := p.store.UpsertChannel(ctx, slackapi.ChannelFromSlack(ch)); err != nil {
			slog.Error("Failed to upsert channel",
				slog.String("channel_id", ch.ID),
				slog.Any("error", err))
			continue
		}
		metrics.ChannelsSynced.Inc()
	}

	slog.Info("Synced channels", slog.Int("count", len(channels)))
	return nil
}

// SyncAllMessages runs an incremental message sync over every cached channel.
// A failing channel is logged and skipped so the rest of the pass completes.
func (p *Poller) SyncAllMessages(ctx context.Context) error {
	channels, err := p.store.ListChannels(ctx)
	if err != nil {
		return err
	}

	for _, ch := range channels {
		if ch.IsArchived {
			continue
		}
		if err := p.SyncChannelMessages(ctx, ch.ID); err != nil {
			slog.Error("Failed to sync channel",
				slog.String("channel_id", ch.ID),
				slog.String("channel_name", ch.Name),
				slog.Any("error", err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// SyncChannelMessages ingests messages newer than the channel's sync cursor,
// including thread replies and reactions, then advances the cursor to the
// newest ingested timestamp.
func (p *Poller) SyncChannelMessages(ctx context.Context, channelID string) error {
	state, err := p.store.GetSyncState(ctx, channelID)
	if err != nil {
		return err
	}

	oldest := ""
	if state != nil {
		oldest = state.LastTS
	}

	history, err := p.client.ChannelHistory(ctx, channelID, oldest, historyLimit)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return nil
	}

	// History arrives newest first; ingest oldest first so the cursor only
	// ever moves forward.
	newestTS := oldest
	synced := 0
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Timestamp == "" || msg.Timestamp <= oldest {
			continue
		}

		if err := p.ingestMessage(ctx, channelID, msg); err != nil {
			slog.Error("Failed to ingest message",
				slog.String("channel_id", channelID),
				slog.String("ts", msg.Timestamp),
				slog.Any("error", err))
			metrics.MessagesSynced.WithLabelValues("error").Inc()
			continue
		}
		synced++

		if msg.Timestamp > newestTS {
			newestTS = msg.Timestamp
		}
	}

	if newestTS != oldest {
		err := p.store.UpsertSyncState(ctx, &storage.SyncState{
			ChannelID:  channelID,
			LastTS:     newestTS,
			LastSyncAt: time.Now(),
		})
		if err != nil {
			return err
		}
	}

	if synced > 0 {
		slog.Debug("Synced channel messages",
			slog.String("channel_id", channelID),
			slog.Int("count", synced))
	}
	return nil
}

func (p *Poller) ingestMessage(ctx context.Context, channelID string, msg slack.Message) error {
	p.ensureUserCached(ctx, msg.User)

	messageID, err := p.store.UpsertMessage(ctx, slackapi.MessageFromSlack(channelID, msg))
	if err != nil {
		return err
	}
	metrics.MessagesSynced.WithLabelValues("success").Inc()

	if len(msg.Reactions) > 0 {
		reactions := slackapi.ReactionsFromSlack(messageID, msg)
		for _, r := range reactions {
			p.ensureUserCached(ctx, r.UserID)
		}
		if err := p.store.ReplaceReactions(ctx, messageID, reactions); err != nil {
			return err
		}
		metrics.ReactionsSynced.Add(float64(len(reactions)))
	}

	if msg.ReplyCount > 0 {
		if err := p.syncThread(ctx, channelID, msg.Timestamp); err != nil {
			slog.Error("Failed to sync thread",
				slog.String("channel_id", channelID),
				slog.String("thread_ts", msg.Timestamp),
				slog.Any("error", err))
		}
	}

	return nil
}

func (p *Poller) syncThread(ctx context.Context, channelID, threadTS string) error {
	replies, err := p.client.ThreadReplies(ctx, channelID, threadTS)
	if err != nil {
		return err
	}

	for _, reply := range replies {
		p.ensureUserCached(ctx, reply.User)

		messageID, err := p.store.UpsertMessage(ctx, slackapi.MessageFromSlack(channelID, reply))
		if err != nil {
			metrics.MessagesSynced.WithLabelValues("error").Inc()
			continue
		}
		metrics.MessagesSynced.WithLabelValues("success").Inc()

		if len(reply.Reactions) > 0 {
			reactions := slackapi.ReactionsFromSlack(messageID, reply)
			if err := p.store.ReplaceReactions(ctx, messageID, reactions); err == nil {
				metrics.ReactionsSynced.Add(float64(len(reactions)))
			}
		}
	}
	return nil
}

// SyncReminders refreshes the authenticated user's reminders.
func (p *Poller) SyncReminders(ctx context.Context) error {
	reminders, err := p.client.ListReminders(ctx)
	if err != nil {
		return err
	}

	for _, r := range reminders {
		if err := p.store.UpsertReminder(ctx, slackapi.ReminderFromSlack(r, p.client.UserID())); err != nil {
			slog.Error("Failed to upsert reminder",
				slog.String("reminder_id", r.ID),
				slog.Any("error", err))
			continue
		}
		metrics.RemindersSynced.Inc()
	}

	slog.Debug("Synced reminders", slog.Int("count", len(reminders)))
	return nil
}

// ensureUserCached upserts the Slack user once per process. Lookup failures
// are tolerated; the message still stores the raw user ID.
func (p *Poller) ensureUserCached(ctx context.Context, userID string) {
	if userID == "" || p.userCache[userID] {
		return
	}

	user, err := p.client.UserInfo(ctx, userID)
	if err != nil {
		slog.Debug("Failed to fetch user info",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return
	}

	if err := p.store.UpsertUser(ctx, slackapi.UserFromSlack(user)); err != nil {
		slog.Error("Failed to upsert user",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return
	}
	p.userCache[userID] = true
}
