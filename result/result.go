// Package result implements the Result Pipeline (spec §4.6): three phases
// turning a run's working-directory files into the result JSON every run
// directory carries. It is grounded on the teacher's result-shape idea in
// tools/runner/reporter.go (TestCaseReporter's accumulate-then-render
// lifecycle), generalized from a fixed set of reporter fields to an
// open, parser-driven result map.
package result

import (
	"encoding/json"
	"time"

	"github.com/pavilion-hpc/pavilion/corectx"
	"github.com/pavilion-hpc/pavilion/errkind"
)

// Result is the final JSON object written to a run's result.json (spec
// §4.6, "Default keys present in every result").
type Result struct {
	Name        string                 `json:"name"`
	ID          string                 `json:"id"`
	Created     time.Time              `json:"created"`
	Started     time.Time              `json:"started"`
	Finished    time.Time              `json:"finished"`
	DurationSec float64                `json:"duration"`
	Result      string                 `json:"result"` // "PASS" or "FAIL"
	ReturnValue int                    `json:"return_value"`
	Extra       map[string]interface{} `json:"-"` // parse/evaluate additions, flattened at MarshalJSON time
	Errors      []string               `json:"errors,omitempty"`
}

// ParserConfig is one entry of a test's `result_parse` section (spec §4.6
// Phase A/B/C).
type ParserConfig struct {
	Key               string   // result key this parser writes
	Files             []string // globs, relative to the run's working directory; default ["../run.log"]
	ForLinesMatching  string   // default: match every line
	PrecededBy        []string
	Parser            string // "regex" | "split" | "const" | "table", or a registered plugin name
	Args              map[string]interface{}
	MatchSelect       string // "first" | "last" | "all" | "<integer index>"
	PerFile           string // spec §4.6 Phase C table
	Action            string // "store" | "store_str" | "store_true" | "store_false" | "count"
}

// Pipeline runs Phase A-D over workDir for one run and returns the
// populated Result.
type Pipeline struct {
	WorkDir  string
	Registry *corectx.Registry
	Parsers  []ParserConfig
	Evaluate []KeyExpr // Phase D result_evaluate, in declared order
}

// KeyExpr is one `key: expression` pair of Phase D.
type KeyExpr struct {
	Key        string
	Expression string
}

// Run executes all four phases, returning a Result with return_value and
// timestamps already set by the caller (the worker pool knows the run's
// actual start/finish time and exit status; the pipeline only adds parsed
// and evaluated keys).
func (p *Pipeline) Run(base Result) (*Result, error) {
	res := base
	res.Extra = make(map[string]interface{})

	for _, pc := range p.Parsers {
		val, notes, err := p.runOne(p.Registry, pc)
		if err != nil {
			res.Errors = append(res.Errors, errkind.Wrap(errkind.Parse, err, "parsing result key %q", pc.Key).Error())
			continue
		}
		res.Errors = append(res.Errors, notes...)
		applyAction(&res, pc.Key, pc.Action, val)
	}

	if res.Result == "" {
		// Default result semantics (spec §4.6): no parser wrote "result",
		// so it derives from the run's own exit status.
		res.Result = boolToPassFail(res.ReturnValue == 0)
	}

	if err := evaluate(&res, p.Evaluate); err != nil {
		res.Errors = append(res.Errors, err.Error())
	}

	return &res, nil
}

// MarshalJSON flattens Extra's parse/evaluate keys alongside the Result's
// fixed fields, so result.json reads as one open JSON object rather than a
// nested "extra" sub-object (spec §4.6, "Default keys present in every
// result ... plus any parse/evaluate additions").
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Extra)+8)
	for k, v := range r.Extra {
		out[k] = v
	}
	out["name"] = r.Name
	out["id"] = r.ID
	out["created"] = r.Created
	out["started"] = r.Started
	out["finished"] = r.Finished
	out["duration"] = r.DurationSec
	out["result"] = r.Result
	out["return_value"] = r.ReturnValue
	if len(r.Errors) > 0 {
		out["errors"] = r.Errors
	}
	return json.Marshal(out)
}

func boolToPassFail(b bool) string {
	if b {
		return "PASS"
	}
	return "FAIL"
}
