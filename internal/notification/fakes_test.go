package notification

import (
	"context"
	"sync"
	"time"

	"github.com/hackgods/appointment-push-notifier/internal/appointment"
	"github.com/hackgods/appointment-push-notifier/internal/push"
)

type fakeTokenStore struct {
	mu      sync.Mutex
	tokens  map[string]string
	deletes map[string]int
	getErr  error
}

func newFakeTokenStore(tokens map[string]string) *fakeTokenStore {
	if tokens == nil {
		tokens = map[string]string{}
	}
	return &fakeTokenStore{tokens: tokens, deletes: map[string]int{}}
}

func (s *fakeTokenStore) GetToken(_ context.Context, personID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	token, ok := s.tokens[personID]
	if !ok {
		return "", ErrTokenNotFound
	}
	return token, nil
}

func (s *fakeTokenStore) DeleteToken(_ context.Context, personID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes[personID]++
	delete(s.tokens, personID)
	return nil
}

func (s *fakeTokenStore) deleteCount(personID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes[personID]
}

type fakeTransport struct {
	mu         sync.Mutex
	sent       []push.Message
	subscribed []string
	sendFn     func(n int, msg push.Message) (string, error)
	subErr     error
}

func (t *fakeTransport) Send(_ context.Context, msg push.Message) (string, error) {
	t.mu.Lock()
	t.sent = append(t.sent, msg)
	n := len(t.sent)
	fn := t.sendFn
	t.mu.Unlock()

	if fn != nil {
		return fn(n, msg)
	}
	return "msg-id", nil
}

func (t *fakeTransport) SendToTopic(_ context.Context, _, _, _ string) (string, error) {
	return "topic-msg-id", nil
}

func (t *fakeTransport) SubscribeToTopic(_ context.Context, tokens []string, topic string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subErr != nil {
		return t.subErr
	}
	for _, tok := range tokens {
		t.subscribed = append(t.subscribed, topic+"/"+tok)
	}
	return nil
}

func (t *fakeTransport) messages() []push.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]push.Message, len(t.sent))
	copy(out, t.sent)
	return out
}

type fakeRepo struct {
	records []appointment.Record
	err     error
	byID    map[string]appointment.Record

	mu      sync.Mutex
	queries []string
}

func (r *fakeRepo) GetAppointmentByID(_ context.Context, id string) (*appointment.Record, error) {
	rec, ok := r.byID[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &rec, nil
}

func (r *fakeRepo) FindByDateAndStatus(_ context.Context, date, status string) ([]appointment.Record, error) {
	r.mu.Lock()
	r.queries = append(r.queries, date+"|"+status)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.records, nil
}

type fakeClaimer struct {
	granted  bool
	err      error
	claimed  []string
	released []string
}

func (c *fakeClaimer) Claim(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	c.claimed = append(c.claimed, key)
	if c.err != nil {
		return "", false, c.err
	}
	return "claim-token", c.granted, nil
}

func (c *fakeClaimer) Release(_ context.Context, key, token string) error {
	c.released = append(c.released, key+"|"+token)
	return nil
}
