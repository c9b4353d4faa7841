// Package esql implements the ESQL intermediate representation and the
// parser pipeline step that builds it from a consolidated source buffer
// (spec.md §3, §4.3).
package esql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gixsql/gixsql/database"
	"github.com/gixsql/gixsql/optvar"
	"github.com/gixsql/gixsql/perr"
	"github.com/gixsql/gixsql/pipeline"
)

var (
	pushMarker = regexp.MustCompile(`^\*>GIX-FILE-PUSH (.+)$`)
	popMarker  = regexp.MustCompile(`^\*>GIX-FILE-POP\s*$`)
	execSQL    = regexp.MustCompile(`(?i)^\s*EXEC\s+SQL\b`)
	endExec    = regexp.MustCompile(`(?i)END-EXEC\.?`)

	declSectionBegin = regexp.MustCompile(`(?i)^BEGIN\s+DECLARE\s+SECTION`)
	declSectionEnd   = regexp.MustCompile(`(?i)^END\s+DECLARE\s+SECTION`)
	declareCursor    = regexp.MustCompile(`(?i)^DECLARE\s+(\S+)\s+CURSOR\s*(WITH\s+HOLD)?\s*FOR\s+(.*)$`)

	hostVarDecl = regexp.MustCompile(`(?is)^\d+\s+(\S+)\s+PIC\s+(\S+)\s*(.*)$`)
	picDigits   = regexp.MustCompile(`9\((\d+)\)|9+`)

	paramRef = regexp.MustCompile(`:([A-Za-z0-9_\-]+)|(\?)`)
)

// Line is one line of the consolidated buffer, annotated with the
// original (file, line) it came from.
type Line struct {
	Text     string
	Loc      Location
	IsMarker bool
}

// ReplaceRange marks a [Start,End] (inclusive, 0-based indices into
// ParseResult.Lines) span of ESQL source text that the processor step
// must replace with generated call sequences. Statement is nil for the
// BEGIN/END DECLARE SECTION brackets, which are simply elided.
type ReplaceRange struct {
	Start, End int
	Statement  *Statement
}

// ParseResult is the parser's full output: the IR plus enough of the
// original line stream for the processor to round-trip everything that
// isn't itself ESQL (spec.md §8 invariant 4).
type ParseResult struct {
	IR     *IR
	Lines  []Line
	Ranges []ReplaceRange
}

// Step is the ESQLParser pipeline stage. After Run succeeds, Result
// holds the parsed output; ESQLProcessor is constructed with a reference
// to this step so it can read Result once parsing completes (spec.md §9,
// "shared ownership of pipeline steps and IR").
type Step struct {
	Options optvar.Map
	Result  *ParseResult

	// Logger receives scanner trace lines when debug_parser_scanner is
	// set (spec.md §4.3). Defaults to a no-op logger; callers that want
	// traces on stdout assign database.StdoutLogger{} (or share the
	// Preprocessor's own Logger, as cmd/gixpp does).
	Logger database.Logger
}

func New(opts optvar.Map) *Step {
	return &Step{Options: opts, Logger: database.NullLogger{}}
}

func (s *Step) Name() string { return "esql-parser" }

// trace emits a scanner trace line when debug_parser_scanner is set.
func (s *Step) trace(format string, args ...any) {
	if s.Logger == nil || !s.Options.Bool(optvar.KeyDebugParserScanner, false) {
		return
	}
	s.Logger.Printf("esql-scanner: "+format+"\n", args...)
}

func (s *Step) Run(in pipeline.Data, errs *perr.Data) (pipeline.Data, bool) {
	if in.Kind() != pipeline.Buffer || !in.IsValidInput() {
		errs.Fail(perr.SyntaxError, "esql-parser: expected a consolidated buffer input")
		return pipeline.Data{}, false
	}

	lines := splitLines(in.Buffer())
	result := &IR{}
	pr := &ParseResult{IR: result, Lines: lines}

	declMode := false
	seenInSection := map[string]bool{}

	s.trace("scanning %d lines", len(lines))

	i := 0
	for i < len(lines) {
		ln := lines[i]
		if ln.IsMarker {
			i++
			continue
		}

		if declMode {
			if matchesAfterExecSQL(ln.Text, declSectionEnd) {
				// Consume the whole EXEC SQL ... END-EXEC block.
				end := s.consumeExecBlock(lines, i)
				s.trace("line %d: END DECLARE SECTION", i)
				pr.Ranges = append(pr.Ranges, ReplaceRange{Start: i, End: end})
				declMode = false
				i = end + 1
				continue
			}

			// Accumulate a COBOL sentence (terminated by a trailing period)
			// and try to parse it as a host-variable declaration.
			start := i
			var sb strings.Builder
			for i < len(lines) && !lines[i].IsMarker {
				sb.WriteString(lines[i].Text)
				sb.WriteString(" ")
				if strings.HasSuffix(strings.TrimSpace(lines[i].Text), ".") {
					i++
					break
				}
				i++
			}
			text := strings.TrimSpace(sb.String())
			text = strings.TrimSuffix(strings.TrimSpace(text), ".")
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			hv, ok := parseHostVarDecl(text, lines[start].Loc, s.Options)
			if !ok {
				continue
			}
			s.trace("line %d: host variable %s (%s)", start, hv.Name, hv.Type)
			key := strings.ToLower(hv.Name)
			if seenInSection[key] {
				errs.Fail(perr.DuplicateDeclare, "duplicate host variable declaration %s at %s:%d", hv.Name, hv.Location.File, hv.Location.Line)
				return pipeline.Data{}, false
			}
			seenInSection[key] = true
			result.HostVars = append(result.HostVars, hv)
			continue
		}

		if !execSQL.MatchString(ln.Text) {
			i++
			continue
		}

		end := s.consumeExecBlock(lines, i)
		if end < 0 {
			errs.Fail(perr.UnexpectedEOF, "unterminated EXEC SQL block starting at %s:%d", ln.Loc.File, ln.Loc.Line)
			return pipeline.Data{}, false
		}

		block := joinLines(lines[i : end+1])
		body := stripExecWrapper(block)
		s.trace("line %d: EXEC SQL block (%d lines)", i, end-i+1)

		switch {
		case matchesAfterExecSQL(ln.Text, declSectionBegin) || declSectionBegin.MatchString(body):
			declMode = true
			seenInSection = map[string]bool{}
			s.trace("line %d: BEGIN DECLARE SECTION", i)
			pr.Ranges = append(pr.Ranges, ReplaceRange{Start: i, End: end})

		case declareCursor.MatchString(body):
			m := declareCursor.FindStringSubmatch(body)
			cur := &Cursor{
				Name:     m[1],
				WithHold: m[2] != "",
				Location: ln.Loc,
			}
			sqlOrRef := strings.TrimSpace(m[3])
			stmt := &Statement{
				Kind:         DeclareCursor,
				CursorName:   cur.Name,
				Location:     ln.Loc,
				OriginalSpan: block,
			}
			if strings.HasPrefix(sqlOrRef, ":") {
				cur.ParamRef = strings.TrimPrefix(sqlOrRef, ":")
				stmt.SQLText = sqlOrRef
			} else {
				rewritten, params, unresolved := rewriteParams(sqlOrRef, result)
				cur.SQLText = rewritten
				stmt.SQLText = rewritten
				stmt.Params = params
				for _, p := range params {
					if p.HostVar != nil {
						cur.Params = append(cur.Params, p.HostVar)
						stmt.HostVars = append(stmt.HostVars, p.HostVar)
					}
				}
				if len(unresolved) > 0 {
					errs.Warn("unresolved host variable reference(s) %v at %s:%d", unresolved, ln.Loc.File, ln.Loc.Line)
				}
			}
			s.trace("line %d: DECLARE CURSOR %s", i, cur.Name)
			result.Cursors = append(result.Cursors, cur)
			result.Statements = append(result.Statements, stmt)
			pr.Ranges = append(pr.Ranges, ReplaceRange{Start: i, End: end, Statement: stmt})

		default:
			stmt, ok := s.parseGenericStatement(body, ln.Loc, block, result, errs)
			if !ok {
				return pipeline.Data{}, false
			}
			s.trace("line %d: classified as %s", i, stmt.Kind)
			result.Statements = append(result.Statements, stmt)
			pr.Ranges = append(pr.Ranges, ReplaceRange{Start: i, End: end, Statement: stmt})
		}

		i = end + 1
	}

	s.Result = pr
	return pipeline.NewBuffer(summarize(pr)), true
}

// summarize renders a short textual summary of the parse result as the
// step's nominal Buffer output, so that pipeline.Data's IsValidInput
// check has something real to look at; the full structure lives in
// s.Result for the processor step to consume directly.
func summarize(pr *ParseResult) string {
	return fmt.Sprintf("esql-ir: %d host vars, %d cursors, %d statements",
		len(pr.IR.HostVars), len(pr.IR.Cursors), len(pr.IR.Statements))
}

func (s *Step) parseGenericStatement(body string, loc Location, rawBlock string, ir *IR, errs *perr.Data) (*Statement, bool) {
	kind := classifyVerb(body)

	stmt := &Statement{
		Kind:         kind,
		Location:     loc,
		OriginalSpan: rawBlock,
	}

	if kind == Open || kind == Close {
		fields := strings.Fields(body)
		if len(fields) >= 2 {
			stmt.CursorName = fields[1]
		}
	}
	if kind == Fetch {
		fields := strings.Fields(body)
		if len(fields) >= 2 {
			stmt.CursorName = fields[1]
		}
		if idx := strings.Index(strings.ToUpper(body), "INTO"); idx >= 0 {
			into := body[idx+len("INTO"):]
			for _, ref := range paramRef.FindAllStringSubmatch(into, -1) {
				name := ref[1]
				if name == "" {
					continue
				}
				if hv := ir.FindHostVar(name); hv != nil {
					stmt.Into = append(stmt.Into, hv)
					stmt.HostVars = append(stmt.HostVars, hv)
				}
			}
		}
	}

	rewritten, params, unresolved := rewriteParams(body, ir)
	stmt.SQLText = rewritten
	stmt.Params = params
	for _, p := range params {
		if p.HostVar != nil {
			stmt.HostVars = append(stmt.HostVars, p.HostVar)
		}
	}
	if len(unresolved) > 0 {
		errs.Warn("unresolved host variable reference(s) %v at %s:%d", unresolved, loc.File, loc.Line)
	}

	return stmt, true
}

func classifyVerb(body string) StatementKind {
	upper := strings.ToUpper(strings.TrimSpace(body))
	switch {
	case strings.HasPrefix(upper, "CONNECT"):
		return Connect
	case strings.HasPrefix(upper, "DISCONNECT"):
		return Disconnect
	case strings.HasPrefix(upper, "OPEN"):
		return Open
	case strings.HasPrefix(upper, "FETCH"):
		return Fetch
	case strings.HasPrefix(upper, "CLOSE"):
		return Close
	case strings.HasPrefix(upper, "PREPARE"):
		return Prepare
	case strings.HasPrefix(upper, "EXECUTE IMMEDIATE"):
		return ExecuteImmediate
	case strings.HasPrefix(upper, "EXECUTE"):
		return Execute
	case strings.HasPrefix(upper, "COMMIT"):
		return Commit
	case strings.HasPrefix(upper, "ROLLBACK"):
		return Rollback
	default:
		return DML
	}
}

// rewriteParams rewrites :name and ? markers to ordered $n placeholders,
// in first-appearance order (spec.md §4.3, testable property #3).
func rewriteParams(sql string, ir *IR) (string, []ParamRef, []string) {
	var params []ParamRef
	var unresolved []string
	n := 0

	out := paramRef.ReplaceAllStringFunc(sql, func(match string) string {
		n++
		name := strings.TrimPrefix(match, ":")
		var hv *HostVariable
		if match != "?" {
			hv = ir.FindHostVar(name)
			if hv == nil {
				unresolved = append(unresolved, name)
			}
		}
		params = append(params, ParamRef{Position: n, HostVar: hv})
		return "$" + strconv.Itoa(n)
	})
	return out, params, unresolved
}

// consumeExecBlock returns the index of the line containing END-EXEC for
// the EXEC SQL block starting at start, or -1 if none is found before
// the buffer ends.
func (s *Step) consumeExecBlock(lines []Line, start int) int {
	for j := start; j < len(lines); j++ {
		if lines[j].IsMarker {
			continue
		}
		if endExec.MatchString(lines[j].Text) {
			return j
		}
	}
	return -1
}

func matchesAfterExecSQL(line string, re *regexp.Regexp) bool {
	rest := execSQL.ReplaceAllString(line, "")
	return re.MatchString(strings.TrimSpace(rest))
}

func stripExecWrapper(block string) string {
	body := execSQL.ReplaceAllString(block, "")
	body = endExec.ReplaceAllString(body, "")
	return strings.TrimSpace(body)
}

func joinLines(lines []Line) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.IsMarker {
			continue
		}
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, " ")
}

func splitLines(buf string) []Line {
	raw := strings.Split(buf, "\n")
	lines := make([]Line, 0, len(raw))

	type frame struct {
		file string
		line int
	}
	var stack []frame

	for _, text := range raw {
		if m := pushMarker.FindStringSubmatch(text); m != nil {
			stack = append(stack, frame{file: m[1]})
			lines = append(lines, Line{Text: text, IsMarker: true})
			continue
		}
		if popMarker.MatchString(text) {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			lines = append(lines, Line{Text: text, IsMarker: true})
			continue
		}

		loc := Location{Column: 1, Length: len(text)}
		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			top.line++
			loc.File = top.file
			loc.Line = top.line
		}
		lines = append(lines, Line{Text: text, Loc: loc})
	}
	return lines
}

func parseHostVarDecl(text string, loc Location, opts optvar.Map) (*HostVariable, bool) {
	m := hostVarDecl.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	name := m[1]
	pic := m[2]
	clauses := strings.ToUpper(m[3])

	hv := &HostVariable{Name: name, Location: loc}

	upperPic := strings.ToUpper(pic)
	signed := strings.HasPrefix(upperPic, "S")

	switch {
	case strings.Contains(upperPic, "X"):
		hv.Type = Alphanumeric
		hv.Length = countPicLength(upperPic, "X")
	case strings.Contains(upperPic, "N"):
		hv.Type = Japanese
		hv.Length = countPicLength(upperPic, "N")
	default:
		intPart := upperPic
		if idx := strings.Index(upperPic, "V"); idx >= 0 {
			intPart = upperPic[:idx]
			hv.Scale = countPicLength(upperPic[idx:], "9")
		}
		hv.Length = countPicLength(intPart, "9")
		switch {
		case strings.Contains(clauses, "COMP-3") || strings.Contains(clauses, "PACKED-DECIMAL"):
			if signed {
				hv.Type = SignedNumberPD
			} else {
				hv.Type = UnsignedNumberPD
			}
		case strings.Contains(clauses, "COMP") || strings.Contains(clauses, "BINARY"):
			if signed {
				hv.Type = SignedBinary
			} else {
				hv.Type = UnsignedBinary
			}
		case !signed:
			hv.Type = UnsignedNumber
		case strings.Contains(clauses, "SIGN IS LEADING SEPARATE") || strings.Contains(clauses, "SIGN LEADING SEPARATE"):
			hv.Type = SignedNumberLS
		case strings.Contains(clauses, "SIGN IS LEADING") || strings.Contains(clauses, "SIGN LEADING"):
			hv.Type = SignedNumberLC
		case strings.Contains(clauses, "SIGN IS TRAILING SEPARATE") || strings.Contains(clauses, "SIGN TRAILING SEPARATE"):
			hv.Type = SignedNumberTS
		default:
			hv.Type = SignedNumberTC
		}
	}

	threshold := 0
	if opts.Bool(optvar.KeyPicxAsVarchar, false) && hv.Type == Alphanumeric {
		threshold = 1 // any PIC X field becomes varlen when the option is set
	}
	if threshold > 0 && hv.Length > 0 {
		hv.Varlen = true
	}

	return hv, true
}

// countPicLength sums the repeat-count of the given symbol in a PIC
// clause, supporting both "9(5)" and "999" forms.
func countPicLength(pic, symbol string) int {
	total := 0
	i := 0
	for i < len(pic) {
		c := pic[i]
		if string(c) == symbol {
			// Look ahead for a parenthesised repeat count.
			j := i + 1
			for j < len(pic) && pic[j] == byte(symbol[0]) {
				j++
			}
			run := j - i
			if j < len(pic) && pic[j] == '(' {
				end := strings.Index(pic[j:], ")")
				if end > 0 {
					if n, err := strconv.Atoi(pic[j+1 : j+end]); err == nil {
						run = n
					}
					j = j + end + 1
				}
			}
			total += run
			i = j
			continue
		}
		i++
	}
	return total
}
