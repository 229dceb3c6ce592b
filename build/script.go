package build

import "strings"

// ModuleOp is one module-environment manipulation (spec §4.3: "module
// manipulations (load/unload/swap, each followed by a verification line
// that aborts the script on failure)").
type ModuleOp struct {
	Action string // "load", "unload", or "swap"
	Name   string
	// SwapFrom is only set for Action == "swap": "module swap SwapFrom Name".
	SwapFrom string
}

// Script holds the pieces composed into one POSIX shell build script (spec
// §4.3, "Execution").
type Script struct {
	Modules []ModuleOp
	Env     map[string]string
	EnvKeys []string // explicit order for determinism, since map order is not
	Cmds    []string
}

// Compose renders s into a POSIX shell script: module operations (each
// followed by a verification line that aborts on failure), environment
// exports, then the configured commands, in that fixed order.
func (s Script) Compose() string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\nset -e\n")

	for _, m := range s.Modules {
		switch m.Action {
		case "load":
			b.WriteString("module load " + m.Name + "\n")
			b.WriteString("module is-loaded " + m.Name + " || { echo \"pavilion: module load failed: " + m.Name + "\" >&2; exit 1; }\n")
		case "unload":
			b.WriteString("module unload " + m.Name + "\n")
			b.WriteString("module is-loaded " + m.Name + " && { echo \"pavilion: module unload failed: " + m.Name + "\" >&2; exit 1; } || true\n")
		case "swap":
			b.WriteString("module swap " + m.SwapFrom + " " + m.Name + "\n")
			b.WriteString("module is-loaded " + m.Name + " || { echo \"pavilion: module swap failed: " + m.SwapFrom + " -> " + m.Name + "\" >&2; exit 1; }\n")
		}
	}

	keys := s.EnvKeys
	if keys == nil {
		for k := range s.Env {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		b.WriteString("export " + k + "=" + shQuote(s.Env[k]) + "\n")
	}

	for _, cmd := range s.Cmds {
		b.WriteString(cmd + "\n")
	}
	return b.String()
}

// Normalized returns the script text used as build-hash input: every line
// trimmed of surrounding whitespace, blank lines dropped, so incidental
// formatting differences never change a build's content hash.
func (s Script) Normalized() string {
	lines := strings.Split(s.Compose(), "\n")
	var out []string
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n")
}

func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
