package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessageSource serves canned messages and tracks fetch concurrency.
type fakeMessageSource struct {
	ids      []string
	messages map[string]*Message
	listErr  error
	failID   string

	mu         sync.Mutex
	inFlight   int
	maxSeen    int
	fetchCalls atomic.Int32
}

func (f *fakeMessageSource) ListRecent(ctx context.Context, n int) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.ids) > n {
		return f.ids[:n], nil
	}
	return f.ids, nil
}

func (f *fakeMessageSource) Fetch(ctx context.Context, id string) (*Message, error) {
	f.fetchCalls.Add(1)

	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if id == f.failID {
		return nil, errors.New("mailbox timeout")
	}
	if msg, ok := f.messages[id]; ok {
		return msg, nil
	}
	return &Message{ID: id, From: "noreply@example.com", Subject: "hello", Body: "nothing here"}, nil
}

func manyMessageIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("m-%d", i)
	}
	return ids
}

func TestScanMessagesBoundedFetchConcurrency(t *testing.T) {
	src := &fakeMessageSource{ids: manyMessageIDs(20)}

	cfg := DefaultConfig()
	cfg.FetchConcurrency = 3
	cfg.MessageBatchSize = 20

	s, err := NewScanner(cfg, nil, nil, nil)
	require.NoError(t, err)

	_, err = s.ScanMessages(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, int32(20), src.fetchCalls.Load())
	assert.LessOrEqual(t, src.maxSeen, 3)
}

func TestScanMessagesBatchFailsOnSingleFetchError(t *testing.T) {
	src := &fakeMessageSource{ids: manyMessageIDs(8), failID: "m-5"}

	s := newTestScanner(t, nil, nil)
	findings, err := s.ScanMessages(context.Background(), src)
	assert.Nil(t, findings)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchFetchFailed)
}

func TestScanMessagesListUnavailable(t *testing.T) {
	src := &fakeMessageSource{listErr: errors.New("imap down")}

	s := newTestScanner(t, nil, nil)
	_, err := s.ScanMessages(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestScanMessagesEmptyInbox(t *testing.T) {
	src := &fakeMessageSource{}

	s := newTestScanner(t, nil, nil)
	findings, err := s.ScanMessages(context.Background(), src)
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Equal(t, int32(0), src.fetchCalls.Load())
}

func TestScanMessagesDSARRegexDetection(t *testing.T) {
	src := &fakeMessageSource{
		ids: []string{"m-1"},
		messages: map[string]*Message{
			"m-1": {
				ID:       "m-1",
				ThreadID: "t-9",
				From:     "alice@example.com",
				Subject:  "Account removal",
				Body:     "Hi team, please delete all my data from your systems.",
			},
		},
	}

	s := newTestScanner(t, nil, nil)
	findings, err := s.ScanMessages(context.Background(), src)
	require.NoError(t, err)

	dsar := findingsOfType(findings, PIIDSAR)
	require.Len(t, dsar, 1)
	assert.Equal(t, string(IntentDelete), dsar[0].Subtype)
	assert.Equal(t, 0.85, dsar[0].Confidence)
	assert.Equal(t, []string{DetectorDSARRegex}, dsar[0].Detectors)
	assert.Equal(t, "t-9", dsar[0].ThreadID)
	assert.Equal(t, "inbox", dsar[0].Scope)
	assert.ElementsMatch(t, []Law{LawGDPR, LawCCPA}, dsar[0].MappedLaws)

	// The sender address in the header is scanned too.
	emails := findingsOfType(findings, PIIEmail)
	require.Len(t, emails, 1)
	assert.Equal(t, "alice@example.com", emails[0].Value)
	assert.Equal(t, "t-9", emails[0].ThreadID)
}

func TestScanMessagesClassifierKeepsScoresAboveThreshold(t *testing.T) {
	src := &fakeMessageSource{
		ids: []string{"m-1"},
		messages: map[string]*Message{
			"m-1": {
				ID:      "m-1",
				From:    "bob@example.com",
				Subject: "Unhappy",
				Body:    "I am not satisfied with how this was handled.",
			},
		},
	}
	classifier := &fakeClassifier{scores: []LabelScore{
		{Label: "complaint", Score: 0.91},
		{Label: "access", Score: 0.74},
		{Label: "delete", Score: 0.40},
	}}

	s := newTestScanner(t, nil, classifier)
	findings, err := s.ScanMessages(context.Background(), src)
	require.NoError(t, err)

	// One classifier call per message, every label in one call.
	assert.Equal(t, int32(1), classifier.calls.Load())

	dsar := findingsOfType(findings, PIIDSAR)
	require.Len(t, dsar, 2)

	subtypes := []string{dsar[0].Subtype, dsar[1].Subtype}
	assert.ElementsMatch(t, []string{"complaint", "access"}, subtypes)
	for _, f := range dsar {
		assert.Equal(t, []string{DetectorClassifier}, f.Detectors)
		assert.Greater(t, f.Confidence, s.config.ClassifierThreshold)
	}
}

func TestScanMessagesClassifierFailureIsContained(t *testing.T) {
	src := &fakeMessageSource{
		ids: []string{"m-1"},
		messages: map[string]*Message{
			"m-1": {
				ID:      "m-1",
				From:    "carol@example.com",
				Subject: "hello",
				Body:    "just checking in",
			},
		},
	}
	classifier := &fakeClassifier{err: errors.New("model endpoint 503")}

	s := newTestScanner(t, nil, classifier)
	findings, err := s.ScanMessages(context.Background(), src)
	require.NoError(t, err)

	// Classifier trouble never drops the message's other findings.
	emails := findingsOfType(findings, PIIEmail)
	require.Len(t, emails, 1)
	assert.Equal(t, "carol@example.com", emails[0].Value)
	assert.Empty(t, findingsOfType(findings, PIIDSAR))
}
