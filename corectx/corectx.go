// Package corectx replaces the process-wide plugin registries and
// configuration singletons of the source implementation with a single
// explicit value threaded through every component boundary (spec §9,
// "Global mutable state"). It is initialized once by the CLI/config loader
// and passed by reference from there on; no package in this module keeps
// its own package-level mutable state.
package corectx

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/pavilion-hpc/pavilion/config"
)

// Context carries everything a component needs that would otherwise live in
// global state: the logger, the plugin registry, and the working-directory
// roots. Components accept *Context as their first constructor argument (or
// store it on a receiver built from one) instead of reaching for package
// globals.
type Context struct {
	// Log is the structured logger all components write through. It wraps
	// zap the same way the teacher's controller-runtime setup did, but
	// without the controller-runtime manager that used to own it.
	Log logr.Logger

	// WorkDir is the root of the shared-storage working directory (see
	// spec §6: builds/, downloads/, test_runs/, jobs/, series/).
	WorkDir string

	// Registry is the capability registry (schedulers, result parsers,
	// expression functions, system variables, module wrappers; spec §9).
	Registry *Registry

	// Config is the Pavilion config file loaded at startup (spec §4.6/§4.8
	// defaults: results.bigquery_table, catalog.postgres_dsn/table). Nil
	// when no config file was loaded (PAV_WORKDIR set, or PAVILION_CONFIG
	// unset); callers must not assume it is set.
	Config *config.Config
}

// New builds a Context with a production zap logger and an empty registry
// rooted at workDir. Callers needing a custom logger (tests, CLI flags) can
// build a Context literal directly instead.
func New(workDir string) (*Context, error) {
	zl, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &Context{
		Log:      zapr.NewLogger(zl),
		WorkDir:  workDir,
		Registry: NewRegistry(),
	}, nil
}

// contextKey avoids collisions with other packages' context values when a
// *Context must ride along a context.Context for cancellation propagation
// (e.g. into a scheduler subprocess call).
type contextKey struct{}

// WithContext attaches cc to ctx so cancellation-aware calls (build waits,
// scheduler polling) can recover the logger/registry without a second
// parameter.
func WithContext(ctx context.Context, cc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, cc)
}

// FromContext recovers a *Context attached by WithContext, or nil if none
// was attached.
func FromContext(ctx context.Context) *Context {
	cc, _ := ctx.Value(contextKey{}).(*Context)
	return cc
}
