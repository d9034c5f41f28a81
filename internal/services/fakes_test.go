package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jarvistext/jarvis-backend/internal/repository"
)

// ---------- user repository ----------

type fakeUserRepo struct {
	mu      sync.Mutex
	byPhone map[string]*repository.User
	prefs   map[string][]byte
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byPhone: make(map[string]*repository.User),
		prefs:   make(map[string][]byte),
	}
}

func (r *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byPhone[phone]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user repository.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.New().String()
	r.byPhone[user.PhoneNumber] = &user
	return user.ID, nil
}

func (r *fakeUserRepo) UpsertByPhone(_ context.Context, phone string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byPhone[phone]; ok {
		copied := *u
		return &copied, nil
	}
	u := &repository.User{
		ID:          uuid.New().String(),
		PhoneNumber: phone,
		Preferences: []byte("{}"),
	}
	r.byPhone[phone] = u
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) UpdatePreferences(_ context.Context, id string, preferences []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[id] = preferences
	for _, u := range r.byPhone {
		if u.ID == id {
			u.Preferences = preferences
		}
	}
	return nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byPhone)
}

// ---------- conversation repository ----------

type summaryUpdate struct {
	conversationID string
	summary        string
}

type fakeConversationRepo struct {
	mu             sync.Mutex
	byKey          map[string]*repository.Conversation
	summaryUpdates []summaryUpdate
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{byKey: make(map[string]*repository.Conversation)}
}

func (r *fakeConversationRepo) GetByParticipantsKey(_ context.Context, key string) (*repository.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byKey[key]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeConversationRepo) Create(_ context.Context, conversation repository.Conversation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation.ID = uuid.New().String()
	r.byKey[conversation.ParticipantsKey] = &conversation
	return conversation.ID, nil
}

func (r *fakeConversationRepo) UpsertByParticipants(_ context.Context, key string, participants []byte) (*repository.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byKey[key]; ok {
		copied := *c
		return &copied, nil
	}
	c := &repository.Conversation{
		ID:              uuid.New().String(),
		Participants:    participants,
		ParticipantsKey: key,
	}
	r.byKey[key] = c
	copied := *c
	return &copied, nil
}

func (r *fakeConversationRepo) UpdateSummary(_ context.Context, id string, summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaryUpdates = append(r.summaryUpdates, summaryUpdate{conversationID: id, summary: summary})
	for _, c := range r.byKey {
		if c.ID == id {
			c.Summary.String = summary
			c.Summary.Valid = true
		}
	}
	return nil
}

func (r *fakeConversationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}

// seed installs a conversation with the given participants and summary
func (r *fakeConversationRepo) seed(participants []string, summary string) *repository.Conversation {
	normalized, key := NormalizeParticipants(participants)
	encoded, _ := json.Marshal(normalized)
	c := &repository.Conversation{
		ID:              uuid.New().String(),
		Participants:    encoded,
		ParticipantsKey: key,
	}
	if summary != "" {
		c.Summary.String = summary
		c.Summary.Valid = true
	}
	r.mu.Lock()
	r.byKey[key] = c
	r.mu.Unlock()
	copied := *c
	return &copied
}

// ---------- message repository ----------

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []repository.Message
	failWith error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(_ context.Context, message repository.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return "", r.failWith
	}
	message.ID = uuid.New().String()
	r.messages = append(r.messages, message)
	return message.ID, nil
}

func (r *fakeMessageRepo) ListByConversation(_ context.Context, conversationID string) ([]repository.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.Message
	for _, m := range r.messages {
		if m.ConversationID.String == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) all() []repository.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]repository.Message{}, r.messages...)
}

func (r *fakeMessageRepo) botMessages() []repository.Message {
	var out []repository.Message
	for _, m := range r.all() {
		if m.IsBot {
			out = append(out, m)
		}
	}
	return out
}

// ---------- oracle ----------

type oracleCall struct {
	system string
	user   string
}

type fakeOracle struct {
	mu       sync.Mutex
	reply    string
	failWith error
	calls    []oracleCall
}

func newFakeOracle(reply string) *fakeOracle {
	return &fakeOracle{reply: reply}
}

func (o *fakeOracle) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, oracleCall{system: systemPrompt, user: userPrompt})
	if o.failWith != nil {
		return "", o.failWith
	}
	return o.reply, nil
}

func (o *fakeOracle) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

// ---------- dispatcher ----------

type directSend struct {
	number string
	text   string
}

type groupSend struct {
	numbers []string
	text    string
}

type fakeDispatcher struct {
	mu          sync.Mutex
	directSends []directSend
	groupSends  []groupSend
	failWith    error
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{}
}

func (d *fakeDispatcher) SendToOne(_ context.Context, number, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.directSends = append(d.directSends, directSend{number: number, text: text})
	return d.failWith
}

func (d *fakeDispatcher) SendToMany(_ context.Context, numbers []string, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.groupSends = append(d.groupSends, groupSend{numbers: append([]string{}, numbers...), text: text})
	return d.failWith
}

// ---------- quota checker ----------

type fakeLimiter struct {
	denyUser           bool
	denyConversation   bool
	userChecks         int
	conversationChecks int
	failWith           error
}

func (l *fakeLimiter) AllowUser(_ context.Context, _ string) (bool, error) {
	l.userChecks++
	if l.failWith != nil {
		return false, l.failWith
	}
	return !l.denyUser, nil
}

func (l *fakeLimiter) AllowConversation(_ context.Context, _ string) (bool, error) {
	l.conversationChecks++
	if l.failWith != nil {
		return false, l.failWith
	}
	return !l.denyConversation, nil
}

var errStoreDown = errors.New("store unavailable")
