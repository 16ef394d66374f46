package core

import "context"

// Record is one sampled document from the structured store.
type Record struct {
	// ID is the document identifier within its collection.
	ID string

	// Fields is the (possibly nested) document body.
	Fields map[string]any
}

// RecordSource is an already-connected structured data store. Connection
// handling, credentials, and drivers live outside the pipeline.
type RecordSource interface {
	// Collections enumerates the scannable collections, named db.collection.
	Collections(ctx context.Context) ([]string, error)

	// Sample returns up to n records from a collection.
	Sample(ctx context.Context, collection string, n int) ([]Record, error)
}

// Message is one fetched message from the inbox-style source.
type Message struct {
	ID       string
	ThreadID string
	From     string
	Subject  string
	Body     string
}

// MessageSource is an already-connected inbox-style message source.
type MessageSource interface {
	// ListRecent returns up to n recent message ids.
	ListRecent(ctx context.Context, n int) ([]string, error)

	// Fetch retrieves one full message by id.
	Fetch(ctx context.Context, id string) (*Message, error)
}

// LabelScore is one classifier label with its score, ordered by descending
// score in classifier output.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier is the external zero-shot text classification capability used
// for DSAR intent detection on message content.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string) ([]LabelScore, error)
}
