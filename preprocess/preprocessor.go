// Package preprocess implements the preprocessor driver described in
// spec.md §4.5: it holds an ordered list of pipeline steps, a shared
// options map, and an error accumulator, and runs the steps in sequence.
package preprocess

import (
	"fmt"
	"os"

	"github.com/gixsql/gixsql/database"
	"github.com/gixsql/gixsql/optvar"
	"github.com/gixsql/gixsql/perr"
	"github.com/gixsql/gixsql/pipeline"
	"github.com/gixsql/gixsql/util"
)

// Preprocessor chains TransformationSteps from an input file to an
// output file.
type Preprocessor struct {
	Steps   []pipeline.Step
	Options optvar.Map
	Errors  *perr.Data

	InFile  string
	OutFile string
	Verbose bool

	// CopyDirs/CopyExts are echoed in verbose mode (spec.md §4.5 step 3);
	// the CLI layer populates them from the CopyResolver it built.
	CopyDirs []string
	CopyExts []string

	Logger database.Logger

	finalOutput pipeline.Data
	hasOutput   bool
}

// New returns a Preprocessor with an empty options map and a fresh error
// accumulator.
func New() *Preprocessor {
	return &Preprocessor{
		Options: optvar.New(),
		Errors:  perr.New(),
		Logger:  database.StdoutLogger{},
	}
}

// AddStep appends s to the pipeline.
func (p *Preprocessor) AddStep(s pipeline.Step) {
	p.Steps = append(p.Steps, s)
}

// Process runs the full pipeline and returns whether it succeeded. On
// failure, p.Errors carries the code and messages (spec.md §4.5).
func (p *Preprocessor) Process() bool {
	if len(p.Steps) == 0 {
		// "nothing to do" is not itself an error (spec.md §4.5 step 1).
		return false
	}

	if p.InFile == "" {
		p.Errors.Fail(perr.BadInputFile, "no input file specified")
		return false
	}
	inData := pipeline.NewFilename(p.InFile)
	if !inData.IsValidInput() {
		p.Errors.Fail(perr.InputNotFound, "input file does not exist: %s", p.InFile)
		return false
	}

	noOutput := p.Options.Bool(optvar.KeyNoOutput, false)
	var outData pipeline.Data
	if p.OutFile != "" {
		outData = pipeline.NewFilename(p.OutFile)
	}
	if !noOutput && !outData.IsValidOutput() {
		p.Errors.Fail(perr.BadOutputFile, "no valid output file specified")
		return false
	}

	if p.Verbose {
		p.logVerbose()
	}

	if !p.transform(inData) {
		return false
	}

	if noOutput || !p.hasOutput {
		return true
	}
	if p.finalOutput.Kind() != pipeline.Buffer {
		// The final step already wrote its own output file.
		return true
	}
	if err := os.WriteFile(p.OutFile, []byte(p.finalOutput.Buffer()), 0644); err != nil {
		p.Errors.Fail(perr.OutputWriteFailed, "writing output file %s: %v", p.OutFile, err)
		return false
	}
	return true
}

// transform chains step[0].input == the injected input-filename marker,
// and every subsequent step's input to its predecessor's output
// (spec.md §8 invariant 1).
func (p *Preprocessor) transform(in pipeline.Data) bool {
	current := in
	for i, step := range p.Steps {
		out, ok := step.Run(current, p.Errors)
		if !ok {
			return false
		}
		current = out
		if i == len(p.Steps)-1 {
			p.finalOutput = out
			p.hasOutput = true
		}
	}
	return true
}

func (p *Preprocessor) logVerbose() {
	p.Logger.Printf("input:  %s\n", p.InFile)
	p.Logger.Printf("output: %s\n", p.OutFile)
	for _, d := range p.CopyDirs {
		p.Logger.Printf("copy dir: %s\n", d)
	}
	for _, e := range p.CopyExts {
		p.Logger.Printf("copy ext: %s\n", e)
	}
	for k, v := range util.CanonicalMapIter(p.Options) {
		p.Logger.Printf("option %s = %s\n", k, v.Stringify())
	}
}

// ExitCode derives the CLI exit code from the accumulated error state
// (spec.md §6: 0 success, otherwise the step- or driver-reported code).
func (p *Preprocessor) ExitCode() int {
	return int(p.Errors.Code())
}

// FormatErrors renders the accumulated messages for diagnostic output.
func (p *Preprocessor) FormatErrors() string {
	var s string
	for _, e := range p.Errors.Errors() {
		s += fmt.Sprintf("error: %s\n", e)
	}
	for _, w := range p.Errors.Warnings() {
		s += fmt.Sprintf("warning: %s\n", w)
	}
	return s
}
