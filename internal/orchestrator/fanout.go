package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult holds the outcome of one request in a batch.
type BatchResult struct {
	Index    int
	Request  Request
	Response *Response
	Err      error
}

// ProcessBatch runs independent requests in parallel with at most limit in
// flight. Results are returned in input order. A failed request does not
// cancel the others.
func (e *Executor) ProcessBatch(ctx context.Context, reqs []Request, limit int) []BatchResult {
	results := make([]BatchResult, len(reqs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		g.Go(func() error {
			resp, err := e.Process(ctx, req)
			results[i] = BatchResult{Index: i, Request: req, Response: resp, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
