// Command gixpp is the ESQL preprocessor CLI (spec.md §6): it wires
// CopyResolver, SourceConsolidation, ESQLParser, and ESQLProcessor into
// a Preprocessor driver, the same way the teacher's cmd/*def mains wire
// a Database and a schema Generator together (cmd/mysqldef/mysqldef.go).
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/gixsql/gixsql/consolidate"
	"github.com/gixsql/gixsql/copyresolver"
	"github.com/gixsql/gixsql/esql"
	"github.com/gixsql/gixsql/esqlgen"
	"github.com/gixsql/gixsql/optvar"
	"github.com/gixsql/gixsql/preprocess"
	"github.com/gixsql/gixsql/util"
)

var version string

type cliOptions struct {
	Help               bool     `short:"h" long:"help" description:"Show this help"`
	Version            bool     `short:"V" long:"version" description:"Show this version"`
	CopyPath           []string `short:"I" long:"copypath" description:"Copybook search path (repeatable)" value-name:"path[sep...]"`
	InFile             string   `short:"i" long:"infile" description:"Input file" value-name:"file"`
	OutFile            string   `short:"o" long:"outfile" description:"Output file (@ stem derives from input basename)" value-name:"file"`
	SymFile            string   `short:"s" long:"symfile" description:"Symbol file" value-name:"file"`
	Esql               bool     `short:"e" long:"esql" description:"Run the ESQL parser/processor steps"`
	EsqlPreprocessCopy bool     `short:"p" long:"esql-preprocess-copy" description:"Resolve COPY directives before ESQL processing"`
	EsqlCopyExts       string   `short:"E" long:"esql-copy-exts" description:"Copybook extensions" value-name:"ext,ext,..." default:"cpy,CPY"`
	ParamStyle         string   `short:"z" long:"param-style" description:"Parameter style" choice:"a" choice:"d" choice:"c" default:"d"`
	EsqlStaticCalls    bool     `short:"S" long:"esql-static-calls" description:"Emit static CALL targets"`
	DebugInfo          bool     `short:"g" long:"debug-info" description:"Emit debug info comments"`
	Consolidate        bool     `short:"c" long:"consolidate" description:"Run the COPY-consolidation step"`
	Keep               bool     `short:"k" long:"keep" description:"Keep temporary files"`
	Verbose            bool     `short:"v" long:"verbose" description:"Verbose logging"`
	VerboseDebug       bool     `short:"d" long:"verbose-debug" description:"Very verbose logging"`
	ParserScannerDebug bool     `short:"D" long:"parser-scanner-debug" description:"Trace the parser/scanner"`
	Map                bool     `short:"m" long:"map" description:"Emit a map file"`
	Cobol85            bool     `short:"C" long:"cobol85" description:"Emit COBOL85-compatible output"`
	Varying            string   `short:"Y" long:"varying" description:"Varlen suffix pair" value-name:"LEN,ARR" default:"LEN,ARR"`
	PicxAs             string   `short:"P" long:"picx-as" description:"PIC X varlen handling" choice:"char" choice:"charf" choice:"varchar" default:"char"`
	NoRecCode          string   `long:"no-rec-code" description:"Code to use for NO-REC (-999999999..999999999)" value-name:"nnn"`
	CopyConfig         string   `long:"copy-config" description:"YAML file listing search_dirs/extensions, instead of repeated -I flags" value-name:"file"`
}

func main() {
	util.InitSlog()

	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options]"

	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if !opts.Esql && !opts.Consolidate {
		fmt.Fprintln(os.Stderr, "at least one of -e/--esql or -c/--consolidate is required")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	outFile := resolveOutputStem(opts.OutFile, opts.InFile)
	if opts.InFile != "" && outFile != "" {
		inAbs, _ := filepath.Abs(opts.InFile)
		outAbs, _ := filepath.Abs(outFile)
		if inAbs == outAbs {
			fmt.Fprintln(os.Stderr, "input and output file must be different")
			os.Exit(1)
		}
	}

	p := buildPreprocessor(opts, outFile)
	ok := p.Process()
	if p.Verbose || !ok {
		fmt.Fprint(os.Stderr, p.FormatErrors())
	}
	if !ok {
		os.Exit(p.ExitCode())
	}
	os.Exit(0)
}

// resolveOutputStem implements the `@` output-basename alias (spec.md
// §6, S6): when outFile's stem is the literal "@", the generated name
// is the input file's basename with the given extension substituted in.
func resolveOutputStem(outFile, inFile string) string {
	dir := filepath.Dir(outFile)
	base := filepath.Base(outFile)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem != "@" {
		return outFile
	}
	inBase := filepath.Base(inFile)
	inStem := strings.TrimSuffix(inBase, filepath.Ext(inBase))
	name := inStem + ext
	if dir == "." {
		return name
	}
	return filepath.Join(dir, name)
}

func buildPreprocessor(opts cliOptions, outFile string) *preprocess.Preprocessor {
	p := preprocess.New()
	p.InFile = opts.InFile
	p.OutFile = outFile
	p.Verbose = opts.Verbose || opts.VerboseDebug

	applyOptions(p.Options, opts)

	var resolver *copyresolver.Resolver
	if opts.CopyConfig != "" {
		r, err := copyresolver.NewFromConfigFile(filepath.Dir(opts.InFile), opts.CopyConfig, opts.VerboseDebug)
		if err != nil {
			log.Fatal(err)
		}
		resolver = r
		p.CopyDirs = resolver.SearchDirs
		p.CopyExts = resolver.Extensions
	} else {
		dirs, exts := parseCopyPath(opts.CopyPath, opts.EsqlCopyExts)
		p.CopyDirs = dirs
		p.CopyExts = exts
		resolver = copyresolver.New(filepath.Dir(opts.InFile), dirs, exts, opts.VerboseDebug)
	}

	// ESQLParser requires a consolidated buffer to work on (it reads the
	// GIX-FILE-PUSH/POP markers for source locations), so consolidation
	// always runs ahead of it; -c alone (no -e) just stops after this step.
	if opts.Consolidate || opts.EsqlPreprocessCopy || opts.Esql {
		p.AddStep(&consolidate.Step{Resolver: resolver, Options: p.Options})
	}
	if opts.Esql {
		parserStep := esql.New(p.Options)
		parserStep.Logger = p.Logger
		p.AddStep(parserStep)

		proc := esqlgen.New(parserStep, p.Options)
		if opts.Map {
			proc.MapFilePath = deriveSidecar(outFile, ".map")
		}
		if opts.SymFile != "" {
			proc.SymbolFilePath = opts.SymFile
		}
		p.AddStep(proc)
	}

	return p
}

func applyOptions(m optvar.Map, opts cliOptions) {
	m.Set(optvar.KeyParamsStyle, optvar.OfString(opts.ParamStyle))
	m.Set(optvar.KeyEmitStaticCalls, optvar.OfBool(opts.EsqlStaticCalls))
	m.Set(optvar.KeyEmitDebugInfo, optvar.OfBool(opts.DebugInfo))
	m.Set(optvar.KeyEmitCobol85, optvar.OfBool(opts.Cobol85))
	m.Set(optvar.KeyEmitMapFile, optvar.OfBool(opts.Map))
	m.Set(optvar.KeyVarlenSuffixes, optvar.OfString(opts.Varying))
	m.Set(optvar.KeyPicxAsVarchar, optvar.OfBool(opts.PicxAs == "varchar"))
	m.Set(optvar.KeyDebugParserScanner, optvar.OfBool(opts.ParserScannerDebug))
	m.Set(optvar.KeyKeepTempFiles, optvar.OfBool(opts.Keep))
	m.Set(optvar.KeyPreprocessCopy, optvar.OfBool(opts.EsqlPreprocessCopy))
	if opts.NoRecCode != "" {
		n, err := strconv.Atoi(opts.NoRecCode)
		if err != nil || n < -999999999 || n > 999999999 {
			log.Fatalf("--no-rec-code out of range: %s", opts.NoRecCode)
		}
		m.Set(optvar.KeyNoRecCode, optvar.OfInt(int32(n)))
	}
}

// parseCopyPath splits each -I value on the platform path-list
// separator (`;` on Windows, `:` elsewhere; spec.md §6) and splits the
// -E extension list on commas.
func parseCopyPath(copyPath []string, extList string) ([]string, []string) {
	sep := ":"
	if os.PathSeparator == '\\' {
		sep = ";"
	}
	var dirs []string
	for _, cp := range copyPath {
		dirs = append(dirs, strings.Split(cp, sep)...)
	}
	var exts []string
	for _, e := range strings.Split(extList, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			exts = append(exts, e)
		}
	}
	return dirs, exts
}

func deriveSidecar(outFile, ext string) string {
	if outFile == "" {
		return ""
	}
	base := strings.TrimSuffix(outFile, filepath.Ext(outFile))
	return base + ext
}
