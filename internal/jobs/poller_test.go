package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"slackassist/internal/storage"
)

// mockSlackAPI serves canned responses and records call counts.
type mockSlackAPI struct {
	channels  []slack.Channel
	history   map[string][]slack.Message
	replies   map[string][]slack.Message
	users     map[string]*slack.User
	reminders []*slack.Reminder

	userInfoCalls int
	historyOldest map[string]string
}

func (m *mockSlackAPI) UserID() string { return "U_SELF" }

func (m *mockSlackAPI) ListConversations(ctx context.Context) ([]slack.Channel, error) {
	return m.channels, nil
}

func (m *mockSlackAPI) ChannelHistory(ctx context.Context, channelID, oldest string, limit int) ([]slack.Message, error) {
	if m.historyOldest == nil {
		m.historyOldest = make(map[string]string)
	}
	m.historyOldest[channelID] = oldest
	return m.history[channelID], nil
}

func (m *mockSlackAPI) ThreadReplies(ctx context.Context, channelID, threadTS string) ([]slack.Message, error) {
	return m.replies[threadTS], nil
}

func (m *mockSlackAPI) UserInfo(ctx context.Context, userID string) (*slack.User, error) {
	m.userInfoCalls++
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	u := &slack.User{}
	u.ID = userID
	u.Name = "user-" + userID
	return u, nil
}

func (m *mockSlackAPI) ListReminders(ctx context.Context) ([]*slack.Reminder, error) {
	return m.reminders, nil
}

// mockSyncStore records every write the poller makes. Unimplemented Store
// methods panic via the embedded nil interface, which is fine: the poller
// must not call them.
type mockSyncStore struct {
	storage.Store

	channels  map[string]*storage.Channel
	messages  map[string]*storage.Message
	reactions map[int64][]storage.Reaction
	users     map[string]*storage.User
	cursors   map[string]*storage.SyncState
	reminders map[string]*storage.Reminder

	nextID int64
}

func newMockSyncStore() *mockSyncStore {
	return &mockSyncStore{
		channels:  make(map[string]*storage.Channel),
		messages:  make(map[string]*storage.Message),
		reactions: make(map[int64][]storage.Reaction),
		users:     make(map[string]*storage.User),
		cursors:   make(map[string]*storage.SyncState),
		reminders: make(map[string]*storage.Reminder),
	}
}

func (m *mockSyncStore) UpsertChannel(ctx context.Context, ch *storage.Channel) error {
	m.channels[ch.ID] = ch
	return nil
}

func (m *mockSyncStore) ListChannels(ctx context.Context) ([]*storage.Channel, error) {
	var out []*storage.Channel
	for _, ch := range m.channels {
		out = append(out, ch)
	}
	return out, nil
}

func (m *mockSyncStore) UpsertMessage(ctx context.Context, msg *storage.Message) (int64, error) {
	key := msg.ChannelID + ":" + msg.TS
	if existing, ok := m.messages[key]; ok {
		msg.ID = existing.ID
		m.messages[key] = msg
		return existing.ID, nil
	}
	m.nextID++
	msg.ID = m.nextID
	m.messages[key] = msg
	return msg.ID, nil
}

func (m *mockSyncStore) ReplaceReactions(ctx context.Context, messageID int64, reactions []storage.Reaction) error {
	m.reactions[messageID] = reactions
	return nil
}

func (m *mockSyncStore) UpsertUser(ctx context.Context, u *storage.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockSyncStore) GetSyncState(ctx context.Context, channelID string) (*storage.SyncState, error) {
	return m.cursors[channelID], nil
}

func (m *mockSyncStore) UpsertSyncState(ctx context.Context, state *storage.SyncState) error {
	m.cursors[state.ChannelID] = state
	return nil
}

func (m *mockSyncStore) UpsertReminder(ctx context.Context, r *storage.Reminder) error {
	m.reminders[r.ID] = r
	return nil
}

func message(ts, user, text string) slack.Message {
	msg := slack.Message{}
	msg.Timestamp = ts
	msg.User = user
	msg.Text = text
	return msg
}

func TestSyncChannelMessagesAdvancesCursor(t *testing.T) {
	api := &mockSlackAPI{
		history: map[string][]slack.Message{
			"C1": {
				message("1700000300.000000", "U1", "newest"),
				message("1700000200.000000", "U1", "middle"),
				message("1700000100.000000", "U2", "oldest"),
			},
		},
	}
	store := newMockSyncStore()
	poller := NewPoller(api, store, time.Minute)

	if err := poller.SyncChannelMessages(context.Background(), "C1"); err != nil {
		t.Fatalf("SyncChannelMessages: %v", err)
	}

	if len(store.messages) != 3 {
		t.Errorf("stored %d messages, want 3", len(store.messages))
	}

	cursor := store.cursors["C1"]
	if cursor == nil {
		t.Fatal("no sync cursor written")
	}
	if cursor.LastTS != "1700000300.000000" {
		t.Errorf("cursor = %q, want newest ts", cursor.LastTS)
	}
}

func TestSyncChannelMessagesSkipsAlreadyIngested(t *testing.T) {
	api := &mockSlackAPI{
		history: map[string][]slack.Message{
			"C1": {
				message("1700000300.000000", "U1", "new"),
				message("1700000200.000000", "U1", "already ingested"),
				message("1700000100.000000", "U2", "already ingested"),
			},
		},
	}
	store := newMockSyncStore()
	store.cursors["C1"] = &storage.SyncState{ChannelID: "C1", LastTS: "1700000200.000000"}

	poller := NewPoller(api, store, time.Minute)
	if err := poller.SyncChannelMessages(context.Background(), "C1"); err != nil {
		t.Fatalf("SyncChannelMessages: %v", err)
	}

	if len(store.messages) != 1 {
		t.Errorf("stored %d messages, want 1 (only the one past the cursor)", len(store.messages))
	}
	if _, ok := store.messages["C1:1700000300.000000"]; !ok {
		t.Error("the new message was not stored")
	}

	// The cursor passed to Slack bounds the fetch too.
	if api.historyOldest["C1"] != "1700000200.000000" {
		t.Errorf("history oldest = %q, want cursor value", api.historyOldest["C1"])
	}
}

func TestSyncChannelMessagesEmptyHistoryKeepsCursor(t *testing.T) {
	api := &mockSlackAPI{history: map[string][]slack.Message{}}
	store := newMockSyncStore()
	store.cursors["C1"] = &storage.SyncState{ChannelID: "C1", LastTS: "1700000200.000000"}

	poller := NewPoller(api, store, time.Minute)
	if err := poller.SyncChannelMessages(context.Background(), "C1"); err != nil {
		t.Fatalf("SyncChannelMessages: %v", err)
	}

	if store.cursors["C1"].LastTS != "1700000200.000000" {
		t.Errorf("cursor moved to %q on empty history", store.cursors["C1"].LastTS)
	}
}

func TestSyncChannelMessagesIngestsThreads(t *testing.T) {
	parent := message("1700000100.000000", "U1", "thread parent")
	parent.ReplyCount = 2

	api := &mockSlackAPI{
		history: map[string][]slack.Message{"C1": {parent}},
		replies: map[string][]slack.Message{
			"1700000100.000000": {
				func() slack.Message {
					m := message("1700000150.000000", "U2", "first reply")
					m.ThreadTimestamp = "1700000100.000000"
					return m
				}(),
				func() slack.Message {
					m := message("1700000160.000000", "U3", "second reply")
					m.ThreadTimestamp = "1700000100.000000"
					return m
				}(),
			},
		},
	}
	store := newMockSyncStore()
	poller := NewPoller(api, store, time.Minute)

	if err := poller.SyncChannelMessages(context.Background(), "C1"); err != nil {
		t.Fatalf("SyncChannelMessages: %v", err)
	}

	if len(store.messages) != 3 {
		t.Fatalf("stored %d messages, want parent + 2 replies", len(store.messages))
	}

	reply := store.messages["C1:1700000150.000000"]
	if reply == nil || !reply.IsThreadReply() {
		t.Error("reply not stored as thread reply")
	}
}

func TestSyncChannelMessagesStoresReactions(t *testing.T) {
	msg := message("1700000100.000000", "U1", "reacted")
	msg.Reactions = []slack.ItemReaction{
		{Name: "thumbsup", Users: []string{"U2", "U3"}},
	}

	api := &mockSlackAPI{history: map[string][]slack.Message{"C1": {msg}}}
	store := newMockSyncStore()
	poller := NewPoller(api, store, time.Minute)

	if err := poller.SyncChannelMessages(context.Background(), "C1"); err != nil {
		t.Fatalf("SyncChannelMessages: %v", err)
	}

	stored := store.messages["C1:1700000100.000000"]
	if stored == nil {
		t.Fatal("message not stored")
	}

	reactions := store.reactions[stored.ID]
	if len(reactions) != 2 {
		t.Errorf("stored %d reactions, want 2", len(reactions))
	}
}

func TestUserCachedOncePerProcess(t *testing.T) {
	api := &mockSlackAPI{
		history: map[string][]slack.Message{
			"C1": {
				message("1700000200.000000", "U1", "second"),
				message("1700000100.000000", "U1", "first"),
			},
		},
	}
	store := newMockSyncStore()
	poller := NewPoller(api, store, time.Minute)

	if err := poller.SyncChannelMessages(context.Background(), "C1"); err != nil {
		t.Fatalf("SyncChannelMessages: %v", err)
	}

	if api.userInfoCalls != 1 {
		t.Errorf("users.info called %d times for one user, want 1", api.userInfoCalls)
	}
	if store.users["U1"] == nil {
		t.Error("user not cached")
	}
}

func TestSyncChannels(t *testing.T) {
	ch := slack.Channel{}
	ch.ID = "C1"
	ch.Name = "general"
	ch.IsMember = true

	api := &mockSlackAPI{channels: []slack.Channel{ch}}
	store := newMockSyncStore()
	poller := NewPoller(api, store, time.Minute)

	if err := poller.SyncChannels(context.Background()); err != nil {
		t.Fatalf("SyncChannels: %v", err)
	}

	cached := store.channels["C1"]
	if cached == nil {
		t.Fatal("channel not cached")
	}
	if cached.Name != "general" || cached.ChannelType != "public_channel" {
		t.Errorf("cached channel = %+v", cached)
	}
}

func TestSyncAllMessagesSkipsArchived(t *testing.T) {
	api := &mockSlackAPI{
		history: map[string][]slack.Message{
			"C1": {message("1700000100.000000", "U1", "live")},
			"C2": {message("1700000100.000000", "U1", "archived")},
		},
	}
	store := newMockSyncStore()
	store.channels["C1"] = &storage.Channel{ID: "C1", ChannelType: "public_channel"}
	store.channels["C2"] = &storage.Channel{ID: "C2", ChannelType: "public_channel", IsArchived: true}

	poller := NewPoller(api, store, time.Minute)
	if err := poller.SyncAllMessages(context.Background()); err != nil {
		t.Fatalf("SyncAllMessages: %v", err)
	}

	if _, ok := store.messages["C2:1700000100.000000"]; ok {
		t.Error("archived channel was synced")
	}
	if _, ok := store.messages["C1:1700000100.000000"]; !ok {
		t.Error("active channel was not synced")
	}
}

func TestSyncReminders(t *testing.T) {
	r := &slack.Reminder{}
	r.ID = "Rm1"
	r.Text = "review the doc"
	r.Time = 1700000000

	api := &mockSlackAPI{reminders: []*slack.Reminder{r}}
	store := newMockSyncStore()
	poller := NewPoller(api, store, time.Minute)

	if err := poller.SyncReminders(context.Background()); err != nil {
		t.Fatalf("SyncReminders: %v", err)
	}

	stored := store.reminders["Rm1"]
	if stored == nil {
		t.Fatal("reminder not stored")
	}
	// The API omits the owner on some responses; the authenticated user is
	// the fallback.
	if stored.UserID != "U_SELF" {
		t.Errorf("UserID = %q, want fallback U_SELF", stored.UserID)
	}
	if stored.Time == nil || stored.Time.Unix() != 1700000000 {
		t.Errorf("Time = %v, want 1700000000", stored.Time)
	}
}
