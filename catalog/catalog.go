// Package catalog implements the optional result-export sinks the
// retrieval pack's BigQuery/Postgres tooling suggests as a natural
// companion to a test harness's result JSON: a BigQuery table for
// long-term analytics (tools/postgres_migrator's read side, inverted into
// a writer) and a local Postgres mirror for ad-hoc querying
// (tools/postgres_replicator's config shape, generalized from a
// dataset/table transfer list into one results table written via
// leporo/sqlf).
package catalog

import (
	"context"

	"github.com/pavilion-hpc/pavilion/result"
)

// Sink persists a finished run's Result somewhere outside the working
// directory. It is a capability a suite may opt into (spec §6, "External
// Interfaces" names no mandatory export target).
type Sink interface {
	Write(ctx context.Context, seriesLabel string, r *result.Result) error
	Close() error
}

// MultiSink fans a single Write out to every configured Sink, so a suite
// can mirror results to BigQuery and Postgres simultaneously.
type MultiSink struct {
	Sinks []Sink
}

func (m MultiSink) Write(ctx context.Context, seriesLabel string, r *result.Result) error {
	for _, s := range m.Sinks {
		if err := s.Write(ctx, seriesLabel, r); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiSink) Close() error {
	var first error
	for _, s := range m.Sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
