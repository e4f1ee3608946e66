package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniboxai/omnibox/internal/ai"
	"github.com/omniboxai/omnibox/internal/conversation"
	"github.com/omniboxai/omnibox/internal/provider"
	"github.com/omniboxai/omnibox/internal/store"
	"github.com/omniboxai/omnibox/internal/tenant"
)

// fakeMessages is an in-memory MessageStore tracking claim state.
type fakeMessages struct {
	mu            sync.Mutex
	replied       map[string]bool
	closed        map[string]string
	actions       map[string]store.Action
	laterOutbound bool
	upserts       []provider.RawMessage

	markErr    error
	releaseErr error
	upsertErr  error
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{
		replied: make(map[string]bool),
		closed:  make(map[string]string),
		actions: make(map[string]store.Action),
	}
}

func (f *fakeMessages) MarkReplied(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return false, f.markErr
	}
	if f.replied[id] || f.closed[id] != "" {
		return false, nil
	}
	f.replied[id] = true
	return true, nil
}

func (f *fakeMessages) MarkClosed(_ context.Context, id, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replied[id] || f.closed[id] != "" {
		return false, nil
	}
	f.closed[id] = reason
	return true, nil
}

func (f *fakeMessages) ReleaseReplied(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.releaseErr != nil {
		return f.releaseErr
	}
	f.replied[id] = false
	return nil
}

func (f *fakeMessages) SetAction(_ context.Context, id string, action store.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions[id] = action
	return nil
}

func (f *fakeMessages) HasLaterOutbound(context.Context, string, string, time.Time) (bool, error) {
	return f.laterOutbound, nil
}

func (f *fakeMessages) Upsert(_ context.Context, tenantID, providerName string, raw provider.RawMessage) (store.Message, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return store.Message{}, false, f.upsertErr
	}
	f.upserts = append(f.upserts, raw)
	return store.Message{
		ID:                "stored-" + raw.ProviderMessageID,
		TenantID:          tenantID,
		ChannelID:         raw.ChannelID,
		ProviderMessageID: raw.ProviderMessageID,
		Provider:          providerName,
		Direction:         string(raw.Direction),
		BodyText:          raw.BodyText,
		SentAt:            raw.SentAt,
	}, true, nil
}

type fakeContexts struct {
	mu       sync.Mutex
	entries  []conversation.Entry
	appended []conversation.Entry
	enabled  bool
}

func (f *fakeContexts) Get(context.Context, string, string) ([]conversation.Entry, error) {
	return f.entries, nil
}

func (f *fakeContexts) Append(_ context.Context, _, _ string, entries ...conversation.Entry) ([]conversation.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, entries...)
	return f.appended, nil
}

func (f *fakeContexts) AutoReplyEnabled(context.Context, string, string) (bool, error) {
	return f.enabled, nil
}

type fakeClassifier struct{ verdict ai.Verdict }

func (f *fakeClassifier) Classify(context.Context, ai.ClassifyInput) ai.Verdict { return f.verdict }

type fakeWriter struct {
	reply string
	err   error
}

func (f *fakeWriter) GenerateReply(context.Context, ai.ReplyInput) (string, error) {
	return f.reply, f.err
}

type sendRecorder struct {
	mu    sync.Mutex
	calls []provider.OutboundMessage
	id    string
	err   error
}

func (s *sendRecorder) send(_ context.Context, out provider.OutboundMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.calls = append(s.calls, out)
	return s.id, nil
}

func (s *sendRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

const selfAddr = "box@tenant.example"

func testTenant() tenant.Tenant {
	return tenant.Tenant{ID: "t1", Name: "Acme", ReplyPolicy: "be helpful"}
}

func inboundMsg() store.Message {
	return store.Message{
		ID:        "m1",
		TenantID:  "t1",
		ChannelID: "chan-1",
		Provider:  "gmailbox",
		Direction: store.DirectionInbound,
		Sender:    "alice@example.com",
		Subject:   "Shipping",
		BodyText:  "Do you ship abroad?",
		ThreadRef: "<m1@example.com>",
		SentAt:    time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
	}
}

type fixture struct {
	orch     *Orchestrator
	messages *fakeMessages
	contexts *fakeContexts
	sender   *sendRecorder
}

func setup(verdict ai.Verdict, writer *fakeWriter) *fixture {
	messages := newFakeMessages()
	contexts := &fakeContexts{enabled: true}
	sender := &sendRecorder{id: "out-1"}
	orch := New(slog.Default(), messages, contexts, &fakeClassifier{verdict: verdict}, writer, "alerts@omnibox.example")
	return &fixture{orch: orch, messages: messages, contexts: contexts, sender: sender}
}

func TestProcessRepliesRoutineMessage(t *testing.T) {
	f := setup(ai.Verdict{}, &fakeWriter{reply: "Yes, we ship worldwide."})

	res, err := f.orch.Process(context.Background(), testTenant(), selfAddr, inboundMsg(), f.sender.send)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplied, res.Outcome)
	require.NotNil(t, res.Reply)
	assert.Equal(t, "out-1", res.Reply.ProviderMessageID)

	require.Equal(t, 1, f.sender.count())
	out := f.sender.calls[0]
	assert.Equal(t, "alice@example.com", out.To)
	assert.Equal(t, "Re: Shipping", out.Subject)
	assert.Equal(t, "<m1@example.com>", out.InReplyTo)
	assert.Equal(t, "Yes, we ship worldwide.", out.Body)

	// The sent reply is recorded as an outbound message and projected
	// into the conversation context.
	require.Len(t, f.messages.upserts, 1)
	assert.Equal(t, provider.DirectionOutbound, f.messages.upserts[0].Direction)
	require.Len(t, f.contexts.appended, 1)
	assert.Equal(t, conversation.RoleTenant, f.contexts.appended[0].Role)

	assert.True(t, f.messages.replied["m1"])
}

func TestProcessAtMostOnceUnderRace(t *testing.T) {
	f := setup(ai.Verdict{}, &fakeWriter{reply: "answer"})
	msg := inboundMsg()

	const workers = 6
	var wg sync.WaitGroup
	outcomes := make(chan Outcome, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.orch.Process(context.Background(), testTenant(), selfAddr, msg, f.sender.send)
			if err != nil {
				t.Errorf("process: %v", err)
				return
			}
			outcomes <- res.Outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	replied := 0
	for o := range outcomes {
		if o == OutcomeReplied {
			replied++
		}
	}
	assert.Equal(t, 1, replied, "exactly one worker may deliver")
	assert.Equal(t, 1, f.sender.count(), "the provider must see exactly one send")
}

func TestProcessEscalates(t *testing.T) {
	f := setup(ai.Verdict{ActionRequired: true, Reason: "refund dispute", ActionType: "refund", Urgency: "high"},
		&fakeWriter{reply: "should never be used"})

	res, err := f.orch.Process(context.Background(), testTenant(), selfAddr, inboundMsg(), f.sender.send)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEscalated, res.Outcome)
	assert.Equal(t, "refund dispute", res.Reason)

	assert.Equal(t, 0, f.sender.count(), "escalated messages must not be answered automatically")
	action := f.messages.actions["m1"]
	assert.True(t, action.Required)
	assert.Equal(t, "high", action.Urgency)
	assert.False(t, f.messages.replied["m1"], "escalation leaves the message open for a human")
}

func TestProcessFiltersNewsletter(t *testing.T) {
	f := setup(ai.Verdict{}, &fakeWriter{reply: "x"})
	msg := inboundMsg()
	msg.Sender = "noreply@shop.example"

	res, err := f.orch.Process(context.Background(), testTenant(), selfAddr, msg, f.sender.send)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFilteredOut, res.Outcome)
	assert.Equal(t, store.SkipNoReplySender, res.Reason)
	assert.Equal(t, 0, f.sender.count())
	assert.Equal(t, store.SkipNoReplySender, f.messages.closed["m1"], "filtered messages are closed with the filter reason")
	assert.False(t, f.messages.replied["m1"], "replied only ever means a delivered reply")
}

func TestProcessAutoReplyDisabled(t *testing.T) {
	f := setup(ai.Verdict{}, &fakeWriter{reply: "x"})
	f.contexts.enabled = false

	res, err := f.orch.Process(context.Background(), testTenant(), selfAddr, inboundMsg(), f.sender.send)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAutoReplyDisabled, res.Outcome)
	assert.Equal(t, 0, f.sender.count())
	assert.Equal(t, string(OutcomeAutoReplyDisabled), f.messages.closed["m1"])
	assert.False(t, f.messages.replied["m1"])
}

func TestProcessAlreadyAnswered(t *testing.T) {
	f := setup(ai.Verdict{}, &fakeWriter{reply: "x"})
	f.messages.laterOutbound = true

	res, err := f.orch.Process(context.Background(), testTenant(), selfAddr, inboundMsg(), f.sender.send)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyAnswered, res.Outcome)
	assert.Equal(t, 0, f.sender.count(), "a hand-written answer suppresses the automated one")
	assert.Equal(t, string(OutcomeAlreadyAnswered), f.messages.closed["m1"])
	assert.False(t, f.messages.replied["m1"])
}

func TestProcessSendFailureReleasesClaim(t *testing.T) {
	f := setup(ai.Verdict{}, &fakeWriter{reply: "answer"})
	f.sender.err = errors.New("provider 503")

	res, err := f.orch.Process(context.Background(), testTenant(), selfAddr, inboundMsg(), f.sender.send)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRetryLater, res.Outcome)
	assert.False(t, f.messages.replied["m1"], "claim must be released so the next cycle retries")

	// Next cycle succeeds.
	f.sender.err = nil
	res, err = f.orch.Process(context.Background(), testTenant(), selfAddr, inboundMsg(), f.sender.send)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReplied, res.Outcome)
	assert.Equal(t, 1, f.sender.count())
}

func TestProcessDraftFailureLeavesPending(t *testing.T) {
	f := setup(ai.Verdict{}, &fakeWriter{err: errors.New("rate limited")})

	res, err := f.orch.Process(context.Background(), testTenant(), selfAddr, inboundMsg(), f.sender.send)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRetryLater, res.Outcome)
	assert.Equal(t, 0, f.sender.count())
	assert.False(t, f.messages.replied["m1"])
}

func TestProcessReleaseFailureIsLoud(t *testing.T) {
	f := setup(ai.Verdict{}, &fakeWriter{reply: "answer"})
	f.sender.err = errors.New("provider down")
	f.messages.releaseErr = errors.New("db down")

	_, err := f.orch.Process(context.Background(), testTenant(), selfAddr, inboundMsg(), f.sender.send)
	assert.Error(t, err, "an unreleased claim after a failed send needs an operator")
}

func TestProcessRecordFailureIsLoud(t *testing.T) {
	f := setup(ai.Verdict{}, &fakeWriter{reply: "answer"})
	f.messages.upsertErr = errors.New("db down")

	_, err := f.orch.Process(context.Background(), testTenant(), selfAddr, inboundMsg(), f.sender.send)
	assert.Error(t, err, "a delivered but unrecorded reply must not be silently retried")
	assert.Equal(t, 1, f.sender.count())
}

func TestReplySubject(t *testing.T) {
	assert.Equal(t, "Re: Hello", replySubject("Hello"))
	assert.Equal(t, "Re: hello", replySubject("re: hello"))
	assert.Equal(t, "RE: Hello", replySubject("RE: Hello"))
	assert.Equal(t, "", replySubject("  "))
}
