package database

import "fmt"

// Backend is one of the kinds DbInterfaceFactory recognises (spec.md §4.7).
type Backend string

const (
	Pgsql  Backend = "pgsql"
	Odbc   Backend = "odbc"
	Mysql  Backend = "mysql"
	Oracle Backend = "oracle"
	Sqlite Backend = "sqlite"
)

// builderFunc constructs a fresh, uninitialised DbInterface instance
// for a registered backend.
type builderFunc func() DbInterface

// registry is populated by each backend package's init() via Register,
// mirroring the teacher's driver-selection pattern in cmd/*def main()
// functions, but as a runtime map instead of a compile-time switch.
var registry = map[Backend]builderFunc{}

// Register adds a backend builder to the factory. Backend packages
// (database/pgsql, database/mysqlgix) call this from their own init().
func Register(kind Backend, build builderFunc) {
	registry[kind] = build
}

func init() {
	// Backends named by spec.md §4.7 that this repository does not
	// compile in: recognised names with no builder, per design note
	// §9(c) — getInterface logs and returns a null instance rather
	// than silently omitting the name from dispatch entirely.
	for _, b := range []Backend{Odbc, Oracle, Sqlite} {
		if _, ok := registry[b]; !ok {
			registry[b] = nil
		}
	}
}

// Factory implements DbInterfaceFactory (spec.md §4.7): it resolves a
// backend name to a fresh, initialised DbInterface. It keeps no record
// of the instances it hands out; ReleaseInterface acts only on the
// instance it is given.
type Factory struct {
	Logger Logger
}

// NewFactory returns a Factory that logs via logger (StdoutLogger if nil).
func NewFactory(logger Logger) *Factory {
	if logger == nil {
		logger = StdoutLogger{}
	}
	return &Factory{Logger: logger}
}

// GetInterface resolves kindOrName to a registered backend, builds a
// fresh instance, calls Init(f.Logger), and returns it. A missing
// module or missing builder yields (nil, false) and an ERROR-level
// log line (spec.md §4.7).
func (f *Factory) GetInterface(kindOrName string) (DbInterface, bool) {
	kind := Backend(kindOrName)
	build, known := registry[kind]
	if !known {
		f.Logger.Printf("ERROR: unrecognised database backend %q\n", kindOrName)
		return nil, false
	}
	if build == nil {
		f.Logger.Printf("ERROR: database backend %q is a recognised name but not compiled into this build\n", kindOrName)
		return nil, false
	}
	inst := build()
	if code := inst.Init(f.Logger); code != OK {
		f.Logger.Printf("ERROR: backend %q failed to initialise (code %d)\n", kindOrName, code)
		return nil, false
	}
	return inst, true
}

// ReleaseInterface unloads the module handle backing inst. Since this
// implementation has no dynamic-loading module handle to free (unlike
// the shared-library backends spec.md §4.7 describes), release is
// reduced to Terminate plus a diagnostic, keeping the same two-step
// acquire/release contract the spec names.
func (f *Factory) ReleaseInterface(inst DbInterface) {
	if inst == nil {
		return
	}
	if code := inst.Terminate(); code != OK {
		f.Logger.Printf("WARN: terminate during release returned code %d\n", code)
	}
}

// ParseBackend validates a CLI-supplied backend name against the set
// spec.md §4.7 names, independent of whether it is compiled in.
func ParseBackend(name string) (Backend, error) {
	switch Backend(name) {
	case Pgsql, Odbc, Mysql, Oracle, Sqlite:
		return Backend(name), nil
	default:
		return "", fmt.Errorf("unknown database backend %q", name)
	}
}
