package main

import (
	"context"
	"strings"

	"github.com/pavilion-hpc/pavilion/catalog"
	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/result"
)

// exportResult implements spec §4.6's Result export and §4.8's Series
// Catalog mirror. Both are optional capability boundaries looked up through
// cc.Registry rather than a requirement on the core Result Pipeline: a
// failure here is recorded in the result's own errors array instead of
// failing the run.
func exportResult(ctx context.Context, cc *corectx.Context, config map[string]interface{}, seriesLabel string, res *result.Result) {
	if table := bigQueryTableFor(cc, config); table != "" {
		if err := writeToBigQuery(ctx, cc, table, seriesLabel, res); err != nil {
			res.Errors = append(res.Errors, "result export: "+err.Error())
		}
	}
	if dsn := postgresDSNFor(cc); dsn != "" {
		if err := mirrorToCatalog(ctx, cc, dsn, seriesLabel, res); err != nil {
			res.Errors = append(res.Errors, "series catalog mirror: "+err.Error())
		}
	}
}

// bigQueryTableFor resolves the "project.dataset.table" a run's result
// ships to: the run's own resolved config wins over the Pavilion config
// file's default (spec §4.6: "if the resolved config carries a
// results.bigquery_table key").
func bigQueryTableFor(cc *corectx.Context, config map[string]interface{}) string {
	if results, ok := config["results"].(map[string]interface{}); ok {
		if table := asString(results["bigquery_table"]); table != "" {
			return table
		}
	}
	if cc.Config != nil {
		return cc.Config.Results.BigQueryTable
	}
	return ""
}

// postgresDSNFor reads the Series Catalog's Postgres mirror DSN from the
// Pavilion config file (spec §4.8); there is no per-run override, since the
// catalog mirrors every series to one shared table.
func postgresDSNFor(cc *corectx.Context) string {
	if cc.Config == nil {
		return ""
	}
	return cc.Config.Catalog.PostgresDSN
}

func writeToBigQuery(ctx context.Context, cc *corectx.Context, table, seriesLabel string, res *result.Result) error {
	parts := strings.SplitN(table, ".", 3)
	if len(parts) != 3 {
		return errkind.New(errkind.Configuration, "results.bigquery_table %q must be \"project.dataset.table\"", table)
	}
	sink, err := catalog.Lookup(cc.Registry, "bigquery", map[string]string{
		"project": parts[0],
		"dataset": parts[1],
		"table":   parts[2],
	})
	if err != nil {
		return err
	}
	defer sink.Close()
	return sink.Write(ctx, seriesLabel, res)
}

func mirrorToCatalog(ctx context.Context, cc *corectx.Context, dsn, seriesLabel string, res *result.Result) error {
	table := cc.Config.Catalog.Table
	if table == "" {
		table = "pavilion_series"
	}
	sink, err := catalog.Lookup(cc.Registry, "postgres", map[string]string{"dsn": dsn, "table": table})
	if err != nil {
		return err
	}
	defer sink.Close()
	return sink.Write(ctx, seriesLabel, res)
}
