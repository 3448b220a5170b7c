package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/latticepricing/internal/pricing/domain"
)

type memStore struct {
	mu       sync.Mutex
	messages map[string]*OutboxMessage
	order    []string
}

func newMemStore(msgs ...*OutboxMessage) *memStore {
	s := &memStore{messages: make(map[string]*OutboxMessage)}
	for _, m := range msgs {
		s.messages[m.ID] = m
		s.order = append(s.order, m.ID)
	}
	return s
}

func (s *memStore) status(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[id].Status
}

func (s *memStore) FetchPending(_ context.Context, limit int) ([]OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []OutboxMessage
	for _, id := range s.order {
		if m := s.messages[id]; m.Status == StatusPending && len(out) < limit {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memStore) MarkSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[id].Status = StatusSent
	return nil
}

func (s *memStore) MarkAttempt(_ context.Context, id string, attempts int, status, lastErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.messages[id]
	m.Attempts, m.Status, m.LastError = attempts, status, lastErr
	return nil
}

func (s *memStore) DeleteSentBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type sentMessage struct {
	topic, key string
	value      []byte
	headers    map[string]string
}

type memSender struct {
	sent []sentMessage
	fail map[string]bool
}

func (s *memSender) SendRaw(_ context.Context, topic, key string, value []byte, headers map[string]string) error {
	if s.fail[key] {
		return errors.New("broker unavailable")
	}
	s.sent = append(s.sent, sentMessage{topic: topic, key: key, value: value, headers: headers})
	return nil
}

type countObserver map[string]int

func (c countObserver) ObserveOutbox(status string) { c[status]++ }

func mustMessage(t *testing.T, key string) *OutboxMessage {
	t.Helper()
	m, err := newOutboxMessage(domain.OptionPricedEventType, key, domain.OptionPricedEvent{Symbol: key, OptionPrice: 1.5}, time.Now())
	require.NoError(t, err)
	return m
}

func TestNewOutboxMessage(t *testing.T) {
	m := mustMessage(t, "AAPL")
	assert.Len(t, m.ID, 36)
	assert.NotEqual(t, m.ID, m.EventID)
	assert.Equal(t, StatusPending, m.Status)
	assert.Equal(t, "AAPL", m.EventKey)

	var ev domain.OptionPricedEvent
	require.NoError(t, json.Unmarshal([]byte(m.Payload), &ev))
	assert.Equal(t, 1.5, ev.OptionPrice)

	_, err := newOutboxMessage("x", "k", func() {}, time.Now())
	require.Error(t, err)
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "short", truncateUTF8("short", maxLastErrorLen))

	// "定" 占 3 字节，511 字节前缀后紧跟一个多字节字符
	msg := strings.Repeat("a", 511) + strings.Repeat("定价失败", 10)
	got := truncateUTF8(msg, maxLastErrorLen)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 511), got)

	wide := strings.Repeat("错", 300)
	got = truncateUTF8(wide, maxLastErrorLen)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, 510)
	assert.True(t, strings.HasPrefix(wide, got))
}

func TestOutboxRelayProcessOnce(t *testing.T) {
	ok1, bad, ok2 := mustMessage(t, "A"), mustMessage(t, "BAD"), mustMessage(t, "B")
	store := newMemStore(ok1, bad, ok2)
	sender := &memSender{fail: map[string]bool{"BAD": true}}
	obs := countObserver{}
	relay := NewOutboxRelay(store, sender, obs, RelayConfig{Topic: "pricing-events", MaxAttempts: 2})

	sent, err := relay.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "pricing-events", sender.sent[0].topic)
	assert.Equal(t, ok1.EventID, sender.sent[0].headers["event_id"])
	assert.Equal(t, StatusSent, store.messages[ok1.ID].Status)
	assert.Equal(t, StatusPending, store.messages[bad.ID].Status)
	assert.Equal(t, 1, store.messages[bad.ID].Attempts)

	// 第二次失败达到上限
	sent, err = relay.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, StatusFailed, store.messages[bad.ID].Status)
	assert.Equal(t, "broker unavailable", store.messages[bad.ID].LastError)
	assert.Equal(t, countObserver{StatusSent: 2, StatusPending: 1, StatusFailed: 1}, obs)
}

func TestOutboxRelayRunStopsOnCancel(t *testing.T) {
	msg := mustMessage(t, "A")
	store := newMemStore(msg)
	sender := &memSender{}
	relay := NewOutboxRelay(store, sender, nil, RelayConfig{Topic: "t", Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		return store.status(msg.ID) == StatusSent
	}, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
