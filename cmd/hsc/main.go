package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	hscript "github.com/hscript-lang/hscript"
)

const (
	appName     = "hsc"
	historyFile = ".hscript_history"
	promptMain  = ">>> "
	promptCont  = "... "
)

var banner = fmt.Sprintf("hscript %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", hscript.Version)

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd := os.Args[1]; cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "compile":
		os.Exit(cmdCompile(os.Args[2:]))
	case "version":
		fmt.Println(hscript.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`hscript %s (built %s)

Usage:
  %s run <file%s>                        Run a template module.
  %s repl                               Start the REPL.
  %s compile [-f] [-q] [-x re] [-l] [path ...]
                                        Compile sources to cache artifacts.
  %s version                            Print the compiled version

Compile flags:
  -f        recompile even when the artifact is fresh
  -q        quieter output; repeat for silence
  -x re     skip files whose base name matches re
  -l        do not recurse into subdirectories

`, hscript.Version, hscript.BuildDate, appName, hscript.SourceExt, appName, appName, appName)
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file%s>\n", appName, hscript.SourceExt)
		return 2
	}
	ip := hscript.NewRuntime()
	if _, err := hscript.RunFile(ip, args[0]); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------
// compile
// -----------------------------------------------------------------------------

type quietCount int

func (q *quietCount) String() string     { return fmt.Sprint(int(*q)) }
func (q *quietCount) Set(_ string) error { *q++; return nil }
func (q *quietCount) IsBoolFlag() bool   { return true }

func cmdCompile(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	force := fs.Bool("f", false, "recompile even when the artifact is fresh")
	var quiet quietCount
	fs.Var(&quiet, "q", "quieter output; repeat for silence")
	exclude := fs.String("x", "", "skip files whose base name matches this pattern")
	local := fs.Bool("l", false, "do not recurse into subdirectories")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts := hscript.CompileDirOptions{
		Force:     *force,
		NoRecurse: *local,
		Quiet:     int(quiet),
	}
	if *exclude != "" {
		re, err := regexp.Compile(*exclude)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: bad -x pattern: %v\n", appName, err)
			return 2
		}
		opts.Exclude = re
	}

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	ok := true
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			ok = false
			continue
		}
		if !info.IsDir() {
			if opts.Quiet == 0 {
				fmt.Printf("compiling %s\n", p)
			}
			if err := hscript.CompileFile(p, opts.Force); err != nil {
				if opts.Quiet < 2 {
					fmt.Fprintln(os.Stderr, err.Error())
				}
				ok = false
			}
			continue
		}
		dirOK, err := hscript.CompileDir(p, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			ok = false
			continue
		}
		ok = ok && dirOK
	}
	if !ok {
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(_ []string) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	ip := hscript.NewRuntime()
	cwd, _ := os.Getwd()
	hscript.InstallFileImporter(ip, cwd)

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		trimmed := strings.TrimSpace(code)
		if strings.HasPrefix(trimmed, ":") {
			if strings.EqualFold(trimmed, ":quit") {
				return 0
			}
			fmt.Printf("unknown command. Type :quit to exit.\n")
			continue
		}
		if trimmed == "" {
			continue
		}

		v, err := ip.EvalSource(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		fmt.Println(hscript.FormatValue(v))
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	return 0
}

// readByParseProbe keeps prompting for continuation lines while the input
// parses as merely incomplete (open block, unterminated string).
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if perr := probeSource(src); perr == nil || !hscript.IsIncomplete(perr) {
			return src, true
		}
	}
}

func probeSource(src string) error {
	toks, err := hscript.Translate(src)
	if err != nil {
		return err
	}
	_, err = hscript.ParseTokens(toks)
	return err
}
