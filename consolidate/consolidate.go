// Package consolidate implements the SourceConsolidation pipeline step:
// it flattens a source file into one buffer by recursively inlining COPY
// references (spec.md §4.2).
package consolidate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gixsql/gixsql/copyresolver"
	"github.com/gixsql/gixsql/optvar"
	"github.com/gixsql/gixsql/perr"
	"github.com/gixsql/gixsql/pipeline"
)

// copyDirective matches "COPY <name>[.<ext>] [REPLACING ...]." case
// insensitively. The host language terminates the directive with a
// period, same as any other sentence.
var copyDirective = regexp.MustCompile(`(?i)^\s*COPY\s+([A-Za-z0-9_\-]+)(?:\.[A-Za-z0-9]+)?\s*(?:(REPLACING\s+.*?))?\.\s*$`)

// Step is the SourceConsolidation transformation.
type Step struct {
	Resolver *copyresolver.Resolver
	Options  optvar.Map
}

// New builds a consolidation step bound to resolver and the shared
// options map. The resolver is borrowed, not owned (spec.md §5).
func New(resolver *copyresolver.Resolver, opts optvar.Map) *Step {
	return &Step{Resolver: resolver, Options: opts}
}

func (s *Step) Name() string { return "source-consolidation" }

// origin tracks a (file, line) pair for cycle reporting.
type origin struct {
	absPath string
	line    int
}

func (s *Step) Run(in pipeline.Data, errs *perr.Data) (pipeline.Data, bool) {
	if in.Kind() != pipeline.Filename || !in.IsValidInput() {
		errs.Fail(perr.BadInputFile, "source-consolidation: invalid input file")
		return pipeline.Data{}, false
	}

	abs, err := filepath.Abs(in.Filename())
	if err != nil {
		errs.Fail(perr.BadInputFile, "source-consolidation: %v", err)
		return pipeline.Data{}, false
	}

	var out strings.Builder
	if !s.inline(abs, &out, nil, errs) {
		return pipeline.Data{}, false
	}
	return pipeline.NewBuffer(out.String()), true
}

// inline splices the content of absPath (and transitively, anything it
// COPYs) into out. stack holds the chain of files currently being
// expanded, used for cycle detection.
func (s *Step) inline(absPath string, out *strings.Builder, stack []origin, errs *perr.Data) bool {
	for _, o := range stack {
		if o.absPath == absPath {
			errs.Fail(perr.CopyCycle, "copy cycle detected: %s", cycleDescription(stack, absPath))
			return false
		}
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		errs.Fail(perr.CopyNotFound, "cannot read %s: %v", absPath, err)
		return false
	}

	emitDebug := s.Options.Bool(optvar.KeyEmitDebugInfo, false)

	fmt.Fprintf(out, "*>GIX-FILE-PUSH %s\n", absPath)

	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		m := copyDirective.FindStringSubmatch(line)
		if m == nil {
			out.WriteString(line)
			out.WriteString("\n")
			continue
		}

		copyName := m[1]
		replacing := m[2]
		if emitDebug && replacing != "" {
			fmt.Fprintf(out, "*> %s\n", replacing)
		}

		target, ok := s.Resolver.Resolve(copyName)
		if !ok {
			errs.Fail(perr.CopyNotFound, "copybook not found: %s (included from %s:%d)", copyName, absPath, i+1)
			return false
		}

		targetAbs, err := filepath.Abs(target)
		if err != nil {
			errs.Fail(perr.CopyNotFound, "cannot resolve %s: %v", copyName, err)
			return false
		}

		nextStack := append(append([]origin{}, stack...), origin{absPath: absPath, line: i + 1})
		if !s.inline(targetAbs, out, nextStack, errs) {
			return false
		}
	}

	fmt.Fprintf(out, "*>GIX-FILE-POP\n")
	return true
}

func cycleDescription(stack []origin, repeated string) string {
	var parts []string
	for _, o := range stack {
		parts = append(parts, fmt.Sprintf("%s:%d", o.absPath, o.line))
	}
	parts = append(parts, repeated)
	return strings.Join(parts, " -> ")
}
