// Command gixrt is a thin runtime harness driving DbInterface end to
// end (connect, then one optional exec), modeled on the teacher's
// cmd/<tool>def mains: flag parsing via go-flags, password prompting
// via golang.org/x/term, and a one-shot run to completion (spec.md §4.6).
package main

import (
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/gixsql/gixsql/database"
	_ "github.com/gixsql/gixsql/database/mysqlgix"
	_ "github.com/gixsql/gixsql/database/pgsql"
	"github.com/gixsql/gixsql/util"
)

type cliOptions struct {
	Backend          string `short:"b" long:"backend" description:"Backend kind" choice:"pgsql" choice:"odbc" choice:"mysql" choice:"oracle" choice:"sqlite" default:"pgsql"`
	DSN              string `short:"d" long:"dsn" description:"Connection string / DSN" required:"true"`
	Prompt           bool   `long:"password-prompt" description:"Prompt for a password and append it to the DSN as password=..."`
	Query            string `short:"q" long:"query" description:"SQL to execute with exec()" value-name:"sql"`
	Autocommit       bool   `long:"autocommit" description:"Autocommit on (default off)"`
	UseNativeCursors bool   `long:"native-cursors" description:"Use native DECLARE CURSOR"`
	FixupParameters  bool   `long:"fixup-parameters" description:"Rewrite ?/:name placeholders to $n before preparing"`
}

func main() {
	util.InitSlog()

	var opts cliOptions
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	dsn := opts.DSN
	if opts.Prompt {
		fmt.Print("Enter Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println()
		dsn = fmt.Sprintf("%s password=%s", dsn, string(pass))
	}

	factory := database.NewFactory(database.StdoutLogger{})
	db, ok := factory.GetInterface(opts.Backend)
	if !ok {
		log.Fatalf("could not obtain a %s DbInterface", opts.Backend)
	}
	defer factory.ReleaseInterface(db)

	info := database.ConnInfo{
		DSN: dsn,
		Opts: database.Config{
			Autocommit:       opts.Autocommit,
			UseNativeCursors: opts.UseNativeCursors,
			FixupParameters:  opts.FixupParameters,
		},
	}

	if code := db.Connect(info); code != database.ConnectedStatus {
		log.Fatalf("connect failed: %s (code %d, state %s)", db.GetErrorMessage(), code, db.GetState())
	}
	fmt.Println("connected")

	if opts.Query == "" {
		return
	}

	code := db.Exec(opts.Query)
	switch code {
	case database.OK:
		fmt.Println("exec ok")
	case database.NoData:
		fmt.Println("exec ok, 0 rows affected (code 100, state 02000)")
	default:
		fmt.Printf("exec failed: %s (code %d, state %s)\n", db.GetErrorMessage(), code, db.GetState())
	}
}
