package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultMessageScope names the message source in finding scopes.
const defaultMessageScope = "inbox"

// ScanMessages lists a batch of recent message ids, fetches the full
// messages with at most FetchConcurrency simultaneous fetches, then runs
// per-message detection concurrently and joins the results into one finding
// list. Any single fetch failure fails the whole batch.
func (s *Scanner) ScanMessages(ctx context.Context, src MessageSource) ([]Finding, error) {
	ids, err := src.ListRecent(ctx, s.config.MessageBatchSize)
	if err != nil {
		return nil, newPipelineError(ErrorCategoryConnection, defaultMessageScope,
			fmt.Errorf("%w: %v", ErrSourceUnavailable, err))
	}
	if len(ids) == 0 {
		return nil, nil
	}

	// Phase 1: bounded-parallel fetch. Excess requests queue behind the
	// errgroup limit rather than failing.
	messages := make([]*Message, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.FetchConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			msg, err := src.Fetch(gctx, id)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", id, err)
			}
			messages[i] = msg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, newPipelineError(ErrorCategoryConnection, defaultMessageScope,
			fmt.Errorf("%w: %v", ErrBatchFetchFailed, err))
	}

	// Phase 2: per-message detection, one concurrent unit of work per
	// message with no limit beyond the fetch cap already paid.
	results := make([][]Finding, len(messages))
	var dg errgroup.Group
	for i, msg := range messages {
		dg.Go(func() error {
			results[i] = s.scanMessage(ctx, defaultMessageScope, msg)
			return nil
		})
	}
	_ = dg.Wait()

	var findings []Finding
	for _, r := range results {
		findings = append(findings, r...)
	}

	s.logger.Debug("message batch scanned",
		zap.Int("messages", len(messages)),
		zap.Int("findings", len(findings)))
	s.audit.Event("scan", "message_scan_completed", "scanner", SeverityInfo, map[string]string{
		"messages": fmt.Sprintf("%d", len(messages)),
		"findings": fmt.Sprintf("%d", len(findings)),
	})

	return findings, nil
}
