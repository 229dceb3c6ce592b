package main

import (
	"context"
	"flag"

	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
	"github.com/pavilion-hpc/pavilion/worker"
)

// cancelCommand implements `pavilion cancel -label <series>`. It builds a
// fresh worker.Canceler and calls CancelAll on it. That Canceler tracks no
// runs, so the command cancels nothing: it does not scan test_runs/ or job
// handle files, and it does not reach runs started by another process.
func cancelCommand(ctx context.Context, cc *corectx.Context, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ContinueOnError)
	label := fs.String("label", "", "series label to cancel")
	if err := fs.Parse(args); err != nil {
		return errkind.Wrap(errkind.Configuration, err, "parsing cancel flags")
	}
	if *label == "" {
		return usageError(fs, "cancel requires -label")
	}

	canceler := worker.NewCanceler()
	errs := canceler.CancelAll(ctx, *label)
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
