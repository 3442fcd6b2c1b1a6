// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package events

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/cache"
	"github.com/tomtom215/palate/internal/config"
	"github.com/tomtom215/palate/internal/interpret"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/render"
	"github.com/tomtom215/palate/internal/session"
	"github.com/tomtom215/palate/internal/store"
)

// eventCapture records published events in place of the NATS publisher.
type eventCapture struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *eventCapture) PublishEvent(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *eventCapture) last(t *testing.T) Event {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		t.Fatal("no events published")
	}
	return p.events[len(p.events)-1]
}

// capturePub records raw watermill messages.
type capturePub struct {
	mu   sync.Mutex
	msgs []*message.Message
}

func (p *capturePub) Publish(_ string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func (p *capturePub) Close() error { return nil }

func seedMenu(t *testing.T, ms *store.MemoryStore) {
	t.Helper()
	yes := true
	items := []models.MenuItem{
		{ID: "item-biryani", Name: "Chicken Biryani", Cuisine: "Pakistani", Category: "Main Course",
			SpiceLevel: models.SpiceHot, IsHalal: &yes,
			PopularityScore: 9.5, AverageRating: 4.7, OrderCount: 850, Available: true},
		{ID: "item-karahi", Name: "Chicken Karahi", Cuisine: "Pakistani", Category: "Main Course",
			SpiceLevel: models.SpiceHot, IsHalal: &yes,
			PopularityScore: 8.5, AverageRating: 4.6, OrderCount: 600, Available: true},
		{ID: "item-daal", Name: "Daal Tarka", Cuisine: "Pakistani", Category: "Main Course",
			SpiceLevel: models.SpiceMild, IsVegetarian: true, IsVegan: true,
			PopularityScore: 7.0, AverageRating: 4.2, OrderCount: 300, Available: true},
		{ID: "item-biryani-special", Name: "Chicken Biryani Special", Cuisine: "Pakistani", Category: "Main Course",
			SpiceLevel: models.SpiceHot, PopularityScore: 9.9, Available: false},
	}
	for i := range items {
		if err := ms.UpsertItem(context.Background(), &items[i]); err != nil {
			t.Fatalf("UpsertItem(%s) error = %v", items[i].ID, err)
		}
	}
}

func newTestEngine(t *testing.T, ms *store.MemoryStore) *recommend.Engine {
	t.Helper()
	cfg := &config.RecommendConfig{
		MaxRank:        8,
		MinViableRank:  2,
		Iterations:     5,
		Regularization: 0.1,
		Alpha:          40,
		NumWorkers:     1,
		DefaultLimit:   5,
		ReorderLimit:   3,
	}
	eng, err := recommend.NewEngine(cfg, zerolog.Nop(), recommend.Stores{
		Catalog:  ms,
		Log:      ms,
		Ratings:  ms,
		Profiles: ms,
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return eng
}

type fixture struct {
	consumer *Consumer
	store    *store.MemoryStore
	sessions *session.MemoryStore
	manager  *session.Manager
	pub      *eventCapture
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ms := store.NewMemoryStore()
	seedMenu(t, ms)

	sessStore := session.NewMemoryStore()
	manager := session.NewManager(sessStore, time.Minute, zerolog.Nop())
	pub := &eventCapture{}

	f := &fixture{store: ms, sessions: sessStore, manager: manager, pub: pub}
	f.consumer = &Consumer{
		seen:   cache.NewExpiringSet(100, time.Minute),
		logger: zerolog.Nop(),
		deps: ConsumerDeps{
			Store:     ms,
			Sessions:  manager,
			Interp:    interpret.New(nil, zerolog.Nop()),
			Engine:    newTestEngine(t, ms),
			Renderer:  render.NewTemplateRenderer(),
			Publisher: pub,
		},
	}
	return f
}

func eventMessage(t *testing.T, evt Event) *message.Message {
	t.Helper()
	data, err := Encode(evt)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return message.NewMessage(evt.ID(), data)
}

func TestConsumer_HandleOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state := session.NewState("sess-1", "user-1")
	state.TurnCount = 3
	state.AwaitingSelection = true
	if err := f.manager.Save(ctx, state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	evt := NewOrderEvent("user-1", "item-biryani", 2)
	evt.SessionID = "sess-1"

	if err := f.consumer.handleOrder(eventMessage(t, evt)); err != nil {
		t.Fatalf("handleOrder() error = %v", err)
	}

	history, err := f.store.HistoryForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("HistoryForUser() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].ItemID != "item-biryani" || history[0].Quantity != 2 {
		t.Errorf("interaction = %+v, want item-biryani quantity 2", history[0])
	}

	item, err := f.store.FindItem(ctx, "item-biryani")
	if err != nil {
		t.Fatalf("FindItem() error = %v", err)
	}
	if item.OrderCount != 852 {
		t.Errorf("OrderCount = %d, want 852", item.OrderCount)
	}

	got, err := f.sessions.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.TurnCount != 0 {
		t.Errorf("TurnCount = %d, want 0 after selection", got.TurnCount)
	}
	if got.AwaitingSelection {
		t.Error("AwaitingSelection still set after selection")
	}
}

func TestConsumer_HandleOrder_NoSession(t *testing.T) {
	f := newFixture(t)

	evt := NewOrderEvent("user-1", "item-daal", 1)
	if err := f.consumer.handleOrder(eventMessage(t, evt)); err != nil {
		t.Fatalf("handleOrder() error = %v", err)
	}

	history, err := f.store.HistoryForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("HistoryForUser() error = %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history length = %d, want 1", len(history))
	}
}

func TestConsumer_HandleOrder_MalformedPayload(t *testing.T) {
	f := newFixture(t)

	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	if err := f.consumer.handleOrder(msg); err == nil {
		t.Fatal("handleOrder() error = nil, want decode error")
	}
}

func TestConsumer_HandleOrder_InvalidEvent(t *testing.T) {
	f := newFixture(t)

	msg := message.NewMessage(watermill.NewUUID(),
		[]byte(`{"event_id":"e-1","user_id":"user-1","item_id":"item-1","quantity":0}`))
	if err := f.consumer.handleOrder(msg); err == nil {
		t.Fatal("handleOrder() error = nil, want validation error")
	}

	history, err := f.store.HistoryForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("HistoryForUser() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("history length = %d, want 0 for rejected event", len(history))
	}
}

func TestConsumer_HandleRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	evt := NewRatingEvent("user-1", "item-daal", 5)
	if err := f.consumer.handleRating(eventMessage(t, evt)); err != nil {
		t.Fatalf("handleRating() error = %v", err)
	}

	ratings, err := f.store.RatingsForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("RatingsForUser() error = %v", err)
	}
	if len(ratings) != 1 || ratings[0].Value != 5 {
		t.Fatalf("ratings = %+v, want one rating of 5", ratings)
	}

	item, err := f.store.FindItem(ctx, "item-daal")
	if err != nil {
		t.Fatalf("FindItem() error = %v", err)
	}
	if item.AverageRating != 5.0 {
		t.Errorf("AverageRating = %v, want 5.0", item.AverageRating)
	}
}

func TestConsumer_HandleRating_OutOfRange(t *testing.T) {
	f := newFixture(t)

	msg := message.NewMessage(watermill.NewUUID(),
		[]byte(`{"event_id":"e-1","user_id":"user-1","item_id":"item-daal","value":9}`))
	if err := f.consumer.handleRating(msg); err == nil {
		t.Fatal("handleRating() error = nil, want validation error")
	}
}

func TestConsumer_HandleChat_PublishesReply(t *testing.T) {
	f := newFixture(t)

	req := NewChatRequest("sess-7", "user-1", "hello")
	if err := f.consumer.handleChat(eventMessage(t, req)); err != nil {
		t.Fatalf("handleChat() error = %v", err)
	}

	resp, ok := f.pub.last(t).(*ChatResponse)
	if !ok {
		t.Fatalf("published event is %T, want *ChatResponse", f.pub.last(t))
	}
	if resp.RequestID != req.EventID {
		t.Errorf("RequestID = %q, want %q", resp.RequestID, req.EventID)
	}
	if resp.Topic() != "palate.chat.response.sess-7" {
		t.Errorf("Topic() = %q, want palate.chat.response.sess-7", resp.Topic())
	}
	if resp.Intent != "greeting" {
		t.Errorf("Intent = %q, want greeting", resp.Intent)
	}
	if resp.Language != "en" {
		t.Errorf("Language = %q, want en", resp.Language)
	}
	if resp.Text != "Hello! What would you like to eat today?" {
		t.Errorf("Text = %q", resp.Text)
	}
}

func TestConsumer_HandleChat_PublishFailure(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker unavailable")

	req := NewChatRequest("sess-7", "user-1", "hello")
	if err := f.consumer.handleChat(eventMessage(t, req)); err == nil {
		t.Fatal("handleChat() error = nil, want publish error")
	}
}

func TestConsumer_Respond_GreetingUsesProfileName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile := &models.UserProfile{UserID: "user-1", Name: "Ahmed"}
	if err := f.store.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	resp, err := f.consumer.respond(ctx, NewChatRequest("sess-g", "user-1", "hello"))
	if err != nil {
		t.Fatalf("respond() error = %v", err)
	}
	if resp.Text != "Hello Ahmed! What would you like to eat today?" {
		t.Errorf("Text = %q", resp.Text)
	}
}

func TestConsumer_Respond_ReorderWithHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orders := []models.Interaction{
		{UserID: "user-1", ItemID: "item-biryani", Quantity: 3, OrderedAt: time.Now().Add(-48 * time.Hour)},
		{UserID: "user-1", ItemID: "item-karahi", Quantity: 1, OrderedAt: time.Now().Add(-24 * time.Hour)},
	}
	for i := range orders {
		if err := f.store.AppendInteraction(ctx, &orders[i]); err != nil {
			t.Fatalf("AppendInteraction() error = %v", err)
		}
	}

	resp, err := f.consumer.respond(ctx, NewChatRequest("sess-r", "user-1", "i want the usual again"))
	if err != nil {
		t.Fatalf("respond() error = %v", err)
	}

	if resp.Intent != "reorder" {
		t.Fatalf("Intent = %q, want reorder", resp.Intent)
	}
	if len(resp.ReorderItems) == 0 {
		t.Fatal("ReorderItems is empty")
	}
	if resp.ReorderItems[0].Item.ID != "item-biryani" {
		t.Errorf("top reorder item = %s, want item-biryani", resp.ReorderItems[0].Item.ID)
	}
	if !strings.Contains(resp.Text, "favorites") {
		t.Errorf("Text = %q, want favorites list", resp.Text)
	}
}

func TestConsumer_Respond_ItemSearch(t *testing.T) {
	f := newFixture(t)

	resp, err := f.consumer.respond(context.Background(),
		NewChatRequest("sess-s", "user-1", "do you have biryani"))
	if err != nil {
		t.Fatalf("respond() error = %v", err)
	}

	if resp.Intent != "specific_item_search" {
		t.Fatalf("Intent = %q, want specific_item_search", resp.Intent)
	}
	if len(resp.NewItems) != 1 {
		t.Fatalf("NewItems length = %d, want 1 (unavailable items excluded)", len(resp.NewItems))
	}
	if resp.NewItems[0].Item.ID != "item-biryani" {
		t.Errorf("found item = %s, want item-biryani", resp.NewItems[0].Item.ID)
	}
	if !strings.Contains(resp.Text, `"biryani"`) {
		t.Errorf("Text = %q, want quoted query", resp.Text)
	}
}

func TestConsumer_Respond_ConflictSurfaced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile := &models.UserProfile{UserID: "user-1", SpicePreference: models.SpiceMild}
	if err := f.store.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	resp, err := f.consumer.respond(ctx, NewChatRequest("sess-c", "user-1", "i want very spicy food"))
	if err != nil {
		t.Fatalf("respond() error = %v", err)
	}

	if len(resp.Conflicts) != 1 {
		t.Fatalf("Conflicts length = %d, want 1", len(resp.Conflicts))
	}
	if resp.Conflicts[0].Type != models.ConflictSpice {
		t.Errorf("conflict type = %s, want %s", resp.Conflicts[0].Type, models.ConflictSpice)
	}
	if !strings.Contains(resp.Text, "anyway") {
		t.Errorf("Text = %q, want conflict acknowledgement", resp.Text)
	}
}

func TestConsumer_Respond_SessionTracksTurns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.consumer.respond(ctx, NewChatRequest("sess-t", "user-1", "i am hungry")); err != nil {
			t.Fatalf("respond() turn %d error = %v", i+1, err)
		}
	}

	state, err := f.sessions.Get(ctx, "sess-t")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if state.TurnCount != 2 {
		t.Errorf("TurnCount = %d, want 2", state.TurnCount)
	}
	if state.LastIntent != interpret.IntentFoodRecommendation {
		t.Errorf("LastIntent = %s, want %s", state.LastIntent, interpret.IntentFoodRecommendation)
	}
	if !state.AwaitingSelection {
		t.Error("AwaitingSelection = false, want true after a shown list")
	}
	if len(state.LastRecommended) == 0 {
		t.Error("LastRecommended is empty")
	}
}

func TestConsumer_Respond_LoopBreaker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// General queries never show a list, so the non-selecting streak
	// grows until the breaker fires on the turn after the threshold.
	for turn := 1; turn <= 5; turn++ {
		resp, err := f.consumer.respond(ctx, NewChatRequest("sess-l", "user-1", "thank you very much"))
		if err != nil {
			t.Fatalf("respond() turn %d error = %v", turn, err)
		}
		if resp.LoopBreaker {
			t.Fatalf("LoopBreaker fired on turn %d", turn)
		}
		if resp.Intent != "general_query" {
			t.Fatalf("turn %d Intent = %q, want general_query", turn, resp.Intent)
		}
	}

	resp, err := f.consumer.respond(ctx, NewChatRequest("sess-l", "user-1", "thank you very much"))
	if err != nil {
		t.Fatalf("respond() breaker turn error = %v", err)
	}
	if !resp.LoopBreaker {
		t.Fatal("LoopBreaker = false on turn 6, want true")
	}
	if resp.Intent != "loop_breaker" {
		t.Errorf("Intent = %q, want loop_breaker", resp.Intent)
	}
	if resp.Text != "Is there anything else I can help you with?" {
		t.Errorf("Text = %q", resp.Text)
	}
	if len(resp.NewItems) != 0 || len(resp.ReorderItems) != 0 {
		t.Error("breaker turn carries recommendation lists")
	}

	// The fired breaker resets the streak.
	after, err := f.consumer.respond(ctx, NewChatRequest("sess-l", "user-1", "thank you very much"))
	if err != nil {
		t.Fatalf("respond() post-breaker error = %v", err)
	}
	if after.LoopBreaker {
		t.Error("LoopBreaker fired again immediately after reset")
	}
}

func TestConsumer_DropDuplicates(t *testing.T) {
	f := newFixture(t)

	calls := 0
	var fail bool
	handler := f.consumer.dropDuplicates(func(msg *message.Message) ([]*message.Message, error) {
		calls++
		if fail {
			return nil, errors.New("transient")
		}
		return nil, nil
	})

	msg := message.NewMessage("uuid-1", []byte("{}"))
	msg.Metadata.Set(natsgo.MsgIdHdr, "evt-1")

	if _, err := handler(msg); err != nil {
		t.Fatalf("first delivery error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	if _, err := handler(msg); err != nil {
		t.Fatalf("duplicate delivery error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d after duplicate, want 1", calls)
	}
}

func TestConsumer_DropDuplicates_FailureNotRecorded(t *testing.T) {
	f := newFixture(t)

	calls := 0
	fail := true
	handler := f.consumer.dropDuplicates(func(msg *message.Message) ([]*message.Message, error) {
		calls++
		if fail {
			return nil, errors.New("transient")
		}
		return nil, nil
	})

	msg := message.NewMessage("uuid-2", []byte("{}"))
	msg.Metadata.Set(natsgo.MsgIdHdr, "evt-2")

	if _, err := handler(msg); err == nil {
		t.Fatal("first delivery error = nil, want failure")
	}

	// The failed delivery must not count as seen.
	fail = false
	if _, err := handler(msg); err != nil {
		t.Fatalf("redelivery error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (failure retried, not deduplicated)", calls)
	}
}

func TestConsumer_RouterDedup(t *testing.T) {
	ms := store.NewMemoryStore()
	seedMenu(t, ms)

	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	deps := ConsumerDeps{
		Store:      ms,
		Sessions:   session.NewManager(session.NewMemoryStore(), time.Minute, zerolog.Nop()),
		Interp:     interpret.New(nil, zerolog.Nop()),
		Engine:     newTestEngine(t, ms),
		Renderer:   render.NewTemplateRenderer(),
		Publisher:  &eventCapture{},
		Subscriber: pubsub,
	}

	c, err := NewConsumer(deps, &config.NATSConfig{CloseTimeout: 5 * time.Second}, watermill.NopLogger{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewConsumer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()
	<-c.Running()

	evt := NewOrderEvent("user-9", "item-daal", 1)
	first := eventMessage(t, evt)
	first.Metadata.Set(natsgo.MsgIdHdr, evt.EventID)

	redelivery := message.NewMessage(watermill.NewUUID(), first.Payload)
	redelivery.Metadata.Set(natsgo.MsgIdHdr, evt.EventID)

	if err := pubsub.Publish(TopicOrderPlaced, first); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := pubsub.Publish(TopicOrderPlaced, redelivery); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		history, herr := ms.HistoryForUser(ctx, "user-9")
		if herr == nil && len(history) >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("interaction not ingested before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Give the redelivery time to pass through the dedup middleware.
	time.Sleep(100 * time.Millisecond)

	history, err := ms.HistoryForUser(ctx, "user-9")
	if err != nil {
		t.Fatalf("HistoryForUser() error = %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history length = %d, want 1 (redelivery dropped)", len(history))
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestTopicClass(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"palate.order.placed", "order"},
		{"palate.rating.submitted", "rating"},
		{"palate.chat.request", "chat_request"},
		{"palate.chat.response.sess-1", "chat_response"},
		{"palate.admin.rebuild", "admin"},
		{"palate.dlq", "dlq"},
		{"palate.unknown.thing", "other"},
		{"bare", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			if got := topicClass(tt.topic); got != tt.want {
				t.Errorf("topicClass(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}

func TestDLQPublisher_RestampsMsgID(t *testing.T) {
	inner := &capturePub{}
	dlq := &dlqPublisher{inner: inner}

	msg := message.NewMessage("uuid-3", []byte("{}"))
	msg.Metadata.Set(natsgo.MsgIdHdr, "original-id")

	if err := dlq.Publish(TopicDeadLetter, msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(inner.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(inner.msgs))
	}
	got := inner.msgs[0].Metadata.Get(natsgo.MsgIdHdr)
	if got == "" || got == "original-id" {
		t.Errorf("Msg-Id = %q, want fresh ID", got)
	}
}
