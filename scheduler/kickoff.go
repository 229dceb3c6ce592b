package scheduler

import "strings"

// HeaderComposer lets a plugin emit scheduler-specific in-script directives
// (e.g. Slurm's #SBATCH lines) ahead of the kickoff script body. The
// default composer emits nothing but the shebang (spec §4.5, "Kickoff
// script": "the default header is just the shebang").
type HeaderComposer func(params RequestParams) string

// DefaultHeader is the zero-value HeaderComposer used by plugins (e.g.
// local) with no native directive syntax.
func DefaultHeader(RequestParams) string { return "" }

// ComposeKickoff builds the kickoff shell script of spec §4.5: it
// redirects all output to kickoff.log, exports the Pavilion config path and
// bin path, and invokes the `_run <id>` entrypoint once per run sharing
// this Job, serially.
func ComposeKickoff(header HeaderComposer, params RequestParams, configPath, binPath string, runIDs []string) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	if header != nil {
		if h := header(params); h != "" {
			b.WriteString(h)
			if !strings.HasSuffix(h, "\n") {
				b.WriteString("\n")
			}
		}
	}
	b.WriteString("exec >kickoff.log 2>&1\n")
	b.WriteString("export PAV_CONFIG_FILE=" + shQuoteKickoff(configPath) + "\n")
	b.WriteString("export PAV_BIN=" + shQuoteKickoff(binPath) + "\n")
	for _, id := range runIDs {
		b.WriteString(shQuoteKickoff(binPath) + " _run " + shQuoteKickoff(id) + "\n")
	}
	return b.String()
}

func shQuoteKickoff(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
