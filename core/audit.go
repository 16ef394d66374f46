package core

import (
	"time"

	"go.uber.org/zap"
)

// AuditSeverity grades audit log events.
type AuditSeverity string

const (
	// SeverityInfo for normal operations
	SeverityInfo AuditSeverity = "info"

	// SeverityWarning for potential compliance issues
	SeverityWarning AuditSeverity = "warning"

	// SeverityError for violations or contained failures
	SeverityError AuditSeverity = "error"

	// SeverityCritical for severe compliance breaches
	SeverityCritical AuditSeverity = "critical"
)

// AuditEvent is one entry in the compliance audit trail.
type AuditEvent struct {
	RequestID string            `json:"request_id"`
	Timestamp string            `json:"timestamp"`
	EventType string            `json:"event_type"`
	Source    string            `json:"source"` // e.g. "scanner", "engine", "reporter"
	Severity  AuditSeverity     `json:"severity"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditLogger records compliance-relevant events through a structured
// logger. Original values never appear in audit events, only categories and
// counts.
type AuditLogger struct {
	logger *zap.Logger
}

// NewAuditLogger wraps a zap logger as the audit sink.
func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogger{logger: logger.Named("audit")}
}

// LogEvent writes one audit event.
func (a *AuditLogger) LogEvent(event AuditEvent) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	fields := []zap.Field{
		zap.String("request_id", event.RequestID),
		zap.String("event_type", event.EventType),
		zap.String("source", event.Source),
		zap.String("severity", string(event.Severity)),
	}
	for k, v := range event.Metadata {
		fields = append(fields, zap.String(k, v))
	}

	switch event.Severity {
	case SeverityWarning:
		a.logger.Warn(event.EventType, fields...)
	case SeverityError, SeverityCritical:
		a.logger.Error(event.EventType, fields...)
	default:
		a.logger.Info(event.EventType, fields...)
	}
}

// Event is a convenience wrapper for LogEvent.
func (a *AuditLogger) Event(requestID, eventType, source string, severity AuditSeverity, metadata map[string]string) {
	a.LogEvent(AuditEvent{
		RequestID: requestID,
		EventType: eventType,
		Source:    source,
		Severity:  severity,
		Metadata:  metadata,
	})
}
