package catalog

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/pkg/errors"

	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/result"
)

// RegisterBigQuery installs the "bigquery" result-sink plugin into reg.
// config carries "project", "dataset" and "table" keys (spec §4.6 Result
// export), the same shape writeToBigQuery in cmd/pavilion splits a
// "project.dataset.table" string into.
func RegisterBigQuery(reg *corectx.Registry) {
	Register(reg, "bigquery", 0, func(config map[string]string) (Sink, error) {
		return NewBigQuerySink(context.Background(), config["project"], config["dataset"], config["table"])
	})
}

// bigQueryRow is the flattened row shape written to BigQuery: the fixed
// result fields as typed columns, with every parser/evaluate addition
// serialized into one JSON column, mirroring tools/postgres_migrator's
// pattern of marshaling heterogeneous sub-objects (metadata, scenario,
// latencies, ...) to JSON text columns rather than modeling each one.
type bigQueryRow struct {
	Series      string    `bigquery:"series"`
	Name        string    `bigquery:"name"`
	ID          string    `bigquery:"id"`
	Result      string    `bigquery:"result"`
	ReturnValue int       `bigquery:"return_value"`
	DurationSec float64   `bigquery:"duration"`
	Created     time.Time `bigquery:"created"`
	Finished    time.Time `bigquery:"finished"`
	Extra       string    `bigquery:"extra_json"`
}

// BigQuerySink writes each finished Result as one row appended to a fixed
// dataset/table, the way tools/postgres_migrator reads BigQuery rows in
// bulk but inverted into a per-result insert.
type BigQuerySink struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewBigQuerySink opens a BigQuery client scoped to projectID and returns a
// sink writing to dataset.table.
func NewBigQuerySink(ctx context.Context, projectID, dataset, table string) (*BigQuerySink, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to BigQuery")
	}
	return &BigQuerySink{client: client, dataset: dataset, table: table}, nil
}

func (b *BigQuerySink) Write(ctx context.Context, seriesLabel string, r *result.Result) error {
	extraJSON, err := json.Marshal(r.Extra)
	if err != nil {
		return errors.Wrap(err, "marshaling result extras for BigQuery export")
	}
	row := bigQueryRow{
		Series:      seriesLabel,
		Name:        r.Name,
		ID:          r.ID,
		Result:      r.Result,
		ReturnValue: r.ReturnValue,
		DurationSec: r.DurationSec,
		Created:     r.Created,
		Finished:    r.Finished,
		Extra:       string(extraJSON),
	}

	inserter := b.client.Dataset(b.dataset).Table(b.table).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return errors.Wrapf(err, "inserting result %s into %s.%s", r.ID, b.dataset, b.table)
	}
	return nil
}

func (b *BigQuerySink) Close() error {
	return b.client.Close()
}
