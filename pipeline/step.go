package pipeline

import "github.com/gixsql/gixsql/perr"

// Step is a single transformation stage: it reads an input Data, does its
// work, and produces an output Data. A step exclusively owns the Data it
// returns; the driver that runs the pipeline only borrows it to feed the
// next step (spec.md §5).
//
// Run returns false as soon as it cannot proceed; it must record why in
// errs before returning. The driver propagates a false return immediately
// without invoking any later step (spec.md §4.5).
type Step interface {
	// Name identifies the step for verbose diagnostics.
	Name() string

	// Run consumes in and produces an output Data, reporting failures into
	// errs.
	Run(in Data, errs *perr.Data) (Data, bool)
}
