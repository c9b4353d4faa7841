package optvar

// Recognised option keys (spec.md §3). Unknown keys are accepted and
// simply ignored by every pipeline stage that doesn't understand them.
const (
	KeyVarlenSuffixes     = "varlen_suffixes"
	KeyEmitStaticCalls    = "emit_static_calls"
	KeyParamsStyle        = "params_style"
	KeyPreprocessCopy     = "preprocess_copy_files"
	KeyConsolidatedMap    = "consolidated_map"
	KeyEmitMapFile        = "emit_map_file"
	KeyEmitCobol85        = "emit_cobol85"
	KeyPicxAsVarchar      = "picx_as_varchar"
	KeyDebugParserScanner = "debug_parser_scanner"
	KeyNoRecCode          = "no_rec_code"
	KeyEmitDebugInfo      = "emit_debug_info"
	KeyNoOutput           = "no_output"
	KeyKeepTempFiles      = "keep_temp_files"
)

// Map is an insertion-order-agnostic string-keyed bag of Value. It is
// built once by the CLI layer before Preprocessor.Process runs, and is
// treated as read-only by every pipeline stage thereafter (spec.md §5).
type Map map[string]Value

// New returns an empty Map.
func New() Map {
	return make(Map)
}

// Set stores v under key, overwriting any previous value for that key.
func (m Map) Set(key string, v Value) {
	m[key] = v
}

// Get returns the value for key and whether it was present.
func (m Map) Get(key string) (Value, bool) {
	v, ok := m[key]
	return v, ok
}

// Bool returns the boolean value for key, or def if absent or of a
// different kind.
func (m Map) Bool(key string, def bool) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.Bool(); ok {
			return b
		}
	}
	return def
}

// String returns the string value for key, or def if absent or of a
// different kind.
func (m Map) String(key string, def string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.String(); ok {
			return s
		}
	}
	return def
}

// Int returns the int value for key, or def if absent or of a different
// kind.
func (m Map) Int(key string, def int32) int32 {
	if v, ok := m[key]; ok {
		if i, ok := v.Int(); ok {
			return i
		}
	}
	return def
}

// Keys returns the map's keys in Go's map iteration order, which is not
// defined and may differ from one call to the next.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
