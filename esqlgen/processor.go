// Package esqlgen implements the ESQLProcessor pipeline step: it replays
// the consolidated source, replacing every ESQL statement span with a
// runtime call sequence, and optionally emits a map file and a symbol
// file (spec.md §4.4).
package esqlgen

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gixsql/gixsql/esql"
	"github.com/gixsql/gixsql/optvar"
	"github.com/gixsql/gixsql/perr"
	"github.com/gixsql/gixsql/pipeline"
	"github.com/gixsql/gixsql/util"
)

// placeholderRef matches one of the IR's canonical $n placeholders.
var placeholderRef = regexp.MustCompile(`\$(\d+)`)

// statementIDNamespace anchors the name-based UUIDs assigned to
// generated call sites, so the same input always yields the same ids
// (SPEC_FULL.md, ESQLProcessor).
var statementIDNamespace = uuid.MustParse("6f6e65fa-2f8b-4b64-9f54-9a8c0c6e6c18")

// MapRow is one record of the optional map file (spec.md §4.4).
type MapRow struct {
	GeneratedLine  int
	OriginalFile   string
	OriginalLine   int
	OriginalColumn int
	Verb           string
	StatementID    string
}

// SymbolRow is one record of the optional symbol file (spec.md §4.4).
type SymbolRow struct {
	Name   string
	Type   string
	Length int
	Offset int
}

// Step is the ESQLProcessor pipeline stage.
type Step struct {
	Parser  *esql.Step
	Options optvar.Map

	MapFilePath    string
	SymbolFilePath string

	MapRows    []MapRow
	SymbolRows []SymbolRow
}

// New builds a processor bound to parser — the same *esql.Step instance
// that was run earlier in the pipeline, so Parser.Result is already
// populated by the time Run is called.
func New(parser *esql.Step, opts optvar.Map) *Step {
	return &Step{Parser: parser, Options: opts}
}

func (s *Step) Name() string { return "esql-processor" }

func (s *Step) Run(_ pipeline.Data, errs *perr.Data) (pipeline.Data, bool) {
	pr := s.Parser.Result
	if pr == nil {
		errs.Fail(perr.SyntaxError, "esql-processor: no parse result available (parser step did not run first)")
		return pipeline.Data{}, false
	}

	var out strings.Builder
	genLine := 0

	rangeAt := make(map[int]esql.ReplaceRange, len(pr.Ranges))
	for _, r := range pr.Ranges {
		rangeAt[r.Start] = r
	}

	i := 0
	for i < len(pr.Lines) {
		if rg, ok := rangeAt[i]; ok {
			if rg.Statement != nil {
				callLines := s.emitCall(rg.Statement)
				for _, cl := range callLines {
					out.WriteString(cl)
					out.WriteString("\n")
					genLine++
				}
				s.MapRows = append(s.MapRows, MapRow{
					GeneratedLine:  genLine,
					OriginalFile:   rg.Statement.Location.File,
					OriginalLine:   rg.Statement.Location.Line,
					OriginalColumn: rg.Statement.Location.Column,
					Verb:           rg.Statement.Kind.String(),
					StatementID:    statementID(rg.Statement),
				})
			} else if s.Options.Bool(optvar.KeyEmitDebugInfo, false) {
				out.WriteString("*> [declare section elided]\n")
				genLine++
			}
			i = rg.End + 1
			continue
		}

		ln := pr.Lines[i]
		if !ln.IsMarker {
			out.WriteString(ln.Text)
			out.WriteString("\n")
			genLine++
		}
		i++
	}

	s.SymbolRows = util.TransformSlice(pr.IR.HostVars, func(hv *esql.HostVariable) SymbolRow {
		return SymbolRow{
			Name:   hv.Name,
			Type:   hv.Type.String(),
			Length: hv.Length,
			Offset: 0, // offsets are assigned by the host compiler's own storage layout, not this tool
		}
	})

	if s.Options.Bool(optvar.KeyEmitMapFile, false) && s.MapFilePath != "" {
		if err := writeFile(s.MapFilePath, renderMapFile(s.MapRows)); err != nil {
			errs.Fail(perr.OutputWriteFailed, "writing map file: %v", err)
			return pipeline.Data{}, false
		}
	}
	if s.SymbolFilePath != "" {
		if err := writeFile(s.SymbolFilePath, renderSymbolFile(s.SymbolRows)); err != nil {
			errs.Fail(perr.OutputWriteFailed, "writing symbol file: %v", err)
			return pipeline.Data{}, false
		}
	}

	return pipeline.NewBuffer(out.String()), true
}

func statementID(stmt *esql.Statement) string {
	key := fmt.Sprintf("%s:%d:%s", stmt.Location.File, stmt.Location.Line, stmt.Kind)
	return uuid.NewSHA1(statementIDNamespace, []byte(key)).String()
}

func renderMapFile(rows []MapRow) string {
	var sb strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&sb, "%d\t%s\t%d\t%d\t%s\t%s\n",
			r.GeneratedLine, r.OriginalFile, r.OriginalLine, r.OriginalColumn, r.Verb, r.StatementID)
	}
	return sb.String()
}

func renderSymbolFile(rows []SymbolRow) string {
	var sb strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&sb, "%s\t%s\t%d\t%d\n", r.Name, r.Type, r.Length, r.Offset)
	}
	return sb.String()
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func callVerb(k esql.StatementKind) string {
	switch k {
	case esql.Connect:
		return "GIXSQLCONNECT"
	case esql.Disconnect:
		return "GIXSQLDISCONNECT"
	case esql.DeclareCursor:
		return "GIXSQLCURSORDECLARE"
	case esql.Open:
		return "GIXSQLCURSOROPEN"
	case esql.Fetch:
		return "GIXSQLCURSORFETCH"
	case esql.Close:
		return "GIXSQLCURSORCLOSE"
	case esql.Prepare:
		return "GIXSQLPREPARE"
	case esql.Commit:
		return "GIXSQLCOMMIT"
	case esql.Rollback:
		return "GIXSQLROLLBACK"
	default:
		return "GIXSQLEXEC"
	}
}

// emitCall renders the fixed-shape call sequence for stmt: a CALL to the
// runtime entry point, a BY REFERENCE argument carrying the SQL text (its
// placeholders reshaped to params_style), and one argument group per
// referenced host variable: address, declared length, type code, flag
// word (spec.md §4.4). emit_cobol85 selects between an explicit END-CALL
// scope terminator (COBOL85) and a bare terminating period, the style
// GixSQL-generated COBOL74 programs rely on (spec.md §4.4/§6).
func (s *Step) emitCall(stmt *esql.Statement) []string {
	verb := callVerb(stmt.Kind)
	static := s.Options.Bool(optvar.KeyEmitStaticCalls, false)

	var target string
	if static {
		target = strconv.Quote(verb)
	} else {
		target = "GIXSQL-ENTRY-" + verb
	}

	lines := []string{fmt.Sprintf("    CALL %s USING", target)}
	lines = append(lines, fmt.Sprintf("        BY REFERENCE %s", s.sqlTextLiteral(stmt)))
	if stmt.CursorName != "" {
		lines = append(lines, fmt.Sprintf("        BY REFERENCE %s", stmt.CursorName))
	}

	for _, hv := range stmt.HostVars {
		lines = append(lines, s.argLine(hv))
	}

	if s.Options.Bool(optvar.KeyEmitCobol85, false) {
		lines = append(lines, "    END-CALL")
	} else {
		lines[len(lines)-1] += "."
	}
	return lines
}

// sqlTextLiteral renders stmt's SQL text with its placeholders reshaped
// per params_style (spec.md §4.3/§4.4/§6): "a" keeps the IR's canonical
// $n form, "d" (the default) emits "?", and "c" emits ":hostvar" using
// the host variable bound at each position.
func (s *Step) sqlTextLiteral(stmt *esql.Statement) string {
	return strconv.Quote(reshapePlaceholders(stmt, s.Options.String(optvar.KeyParamsStyle, "d")))
}

func reshapePlaceholders(stmt *esql.Statement, style string) string {
	if style == "a" {
		return stmt.SQLText
	}
	return placeholderRef.ReplaceAllStringFunc(stmt.SQLText, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil {
			return m
		}
		switch style {
		case "c":
			if n >= 1 && n <= len(stmt.Params) && stmt.Params[n-1].HostVar != nil {
				return ":" + stmt.Params[n-1].HostVar.Name
			}
			return fmt.Sprintf(":P%d", n)
		default: // "d"
			return "?"
		}
	})
}

// argLine renders one host variable's marshalling descriptor: address,
// length, type code, and flag word. When picx_as_varchar is set and hv
// is a varlen alphanumeric field, the address argument is split into the
// length/array suffix pair configured by varlen_suffixes (spec.md §4.4).
func (s *Step) argLine(hv *esql.HostVariable) string {
	flags := 0
	if hv.Type.IsBinary() {
		flags |= 1 // BINARY
	}
	if hv.Varlen {
		flags |= 2 // VARLEN
	}

	if hv.Varlen && s.Options.Bool(optvar.KeyPicxAsVarchar, false) {
		lenSuffix, arrSuffix := varlenSuffixes(s.Options)
		return fmt.Sprintf("        BY REFERENCE %s-%s BY REFERENCE %s-%s BY VALUE %d BY VALUE %d BY VALUE %d",
			hv.Name, lenSuffix, hv.Name, arrSuffix, hv.Length, int(hv.Type), flags)
	}

	return fmt.Sprintf("        BY REFERENCE %s BY VALUE %d BY VALUE %d BY VALUE %d",
		hv.Name, hv.Length, int(hv.Type), flags)
}

func varlenSuffixes(opts optvar.Map) (string, string) {
	raw := opts.String(optvar.KeyVarlenSuffixes, "LEN,ARR")
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return "LEN", "ARR"
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}
