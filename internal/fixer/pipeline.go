// internal/fixer/pipeline.go
package fixer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/bethropolis/phpcbf/internal/config"
	"github.com/bethropolis/phpcbf/internal/logger"
	"github.com/bethropolis/phpcbf/internal/patch"
	"github.com/bethropolis/phpcbf/internal/phpsyntax"
	"github.com/bethropolis/phpcbf/internal/runner"
	"github.com/bethropolis/phpcbf/internal/standard"
)

// phpcbf exit statuses. 0 = nothing to fix, 1 = all fixable violations
// fixed, 2 = some violations could not be fixed (output still carries
// the partial fixes), 3+ = invocation/processing error.
const (
	exitClean        = 0
	exitFixesApplied = 1
	exitFixFailed    = 2
)

// Outcome is the result of one pipeline run, before application.
type Outcome struct {
	Edit      patch.Edit
	Changed   bool
	Remaining int // violations phpcbf reported but could not fix
}

// runPipeline is the shared core behind the manual and on-save
// triggers: resolve the standard, run the formatter over the snapshot,
// gate the output, and compute the minimal edit. It never touches the
// buffer; applying the edit is the caller's job.
func (f *Fixer) runPipeline(ctx context.Context, snapshot, filePath string, cfg *config.Config) (Outcome, error) {
	std, err := standard.Resolve(filePath, cfg.Standard)
	if err != nil {
		if !errors.Is(err, standard.ErrNoStandard) {
			return Outcome{}, err
		}
		std = standard.Default
		logger.Debugf("fixer: no standard configured for '%s', falling back to %s", filePath, std)
	}

	exe, args := buildCommand(cfg, std)

	input := snapshot
	if filePath != "" {
		// Lets filename-sensitive sniffs see the real path despite the
		// content arriving on stdin.
		input = config.InputFileHeader + filePath + "\n" + snapshot
	}

	res, err := f.run(ctx, runner.Request{
		Path:    exe,
		Args:    args,
		Input:   input,
		Timeout: cfg.Timeout.Duration,
	})
	remaining := 0
	if err != nil {
		var ee *runner.ExitError
		if !errors.As(err, &ee) {
			return Outcome{}, err
		}
		switch {
		case ee.Code == exitFixesApplied:
			// Fixes applied; not a failure.
		case ee.Code == exitFixFailed && res.Stdout != "":
			// Partial fix: apply what phpcbf managed, report the rest.
			remaining = parseRemaining(res.Stderr + "\n" + res.Stdout)
		default:
			return Outcome{}, err
		}
	}

	formatted := res.Stdout
	if cfg.ValidateOutput {
		if verr := phpsyntax.Validate(ctx, []byte(formatted)); verr != nil {
			return Outcome{}, fmt.Errorf("%w: %v", ErrBadOutput, verr)
		}
	}

	edit, changed := patch.Compute(snapshot, formatted)
	return Outcome{Edit: edit, Changed: changed, Remaining: remaining}, nil
}

// buildCommand assembles the phpcbf invocation: an optional PHP
// interpreter wrapper, the phpcbf path, the resolved standard, the
// stdin marker, then any user-supplied extra arguments. ${folder} is
// expanded in the executable path and the standard, which may both
// point inside the project.
func buildCommand(cfg *config.Config, std string) (string, []string) {
	cbfPath := cfg.ExpandFolder(cfg.PHPCBFPath)
	std = cfg.ExpandFolder(std)

	var exe string
	var args []string
	if cfg.PHPPath != "" {
		exe = cfg.PHPPath
		args = append(args, cbfPath)
	} else {
		exe = cbfPath
	}
	args = append(args, "--standard="+std, "-")
	args = append(args, cfg.AdditionalArgs...)
	return exe, args
}

var remainingRe = regexp.MustCompile(`(?i)(\d+)\s+(?:sniff\s+)?violations?`)

// parseRemaining pulls the unfixable-violation count out of phpcbf's
// diagnostic text, if it printed one.
func parseRemaining(diag string) int {
	m := remainingRe.FindStringSubmatch(diag)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
