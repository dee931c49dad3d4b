// gosh is a minimal driver built on top of [interp], exercising the
// parser and executor end to end. It is not a line editor: no history,
// completion, or prompt redraw is implemented.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/gosh-lang/gosh/expand"
	"github.com/gosh-lang/gosh/interp"
	"github.com/gosh-lang/gosh/syntax"
)

var command = flag.String("c", "", "command to be executed")

func main() {
	os.Exit(main1())
}

// main1 is the testable entry point: it parses flags, runs the shell,
// and returns the process exit status instead of calling os.Exit
// directly, so testscript can invoke it in-process as a subcommand.
func main1() int {
	flag.Parse()
	err := runAll()
	var es interp.ExitStatus
	if errors.As(err, &es) {
		return int(es)
	}
	var pe *syntax.ParseError
	if errors.As(err, &pe) {
		fmt.Fprintln(os.Stderr, "gosh:", err)
		return 2
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "gosh:", err)
		return 1
	}
	return 0
}

func runAll() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// flag.Args() serves two different roles depending on mode: with -c or
	// no script file, every argument is a positional parameter ($1 upward);
	// with a script file, the first argument is the script's path and only
	// the rest become its positional parameters.
	params := flag.Args()
	var scriptPath string
	if *command == "" && flag.NArg() > 0 {
		scriptPath = flag.Arg(0)
		params = flag.Args()[1:]
	}

	r, err := interp.New(
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(os.Stdin, os.Stdout, os.Stderr),
		interp.Params(params...),
	)
	if err != nil {
		return err
	}

	if *command != "" {
		return run(ctx, r, strings.NewReader(*command), "-c")
	}
	if scriptPath == "" {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return runInteractive(ctx, r, os.Stdin, os.Stdout)
		}
		return run(ctx, r, os.Stdin, "")
	}
	return runPath(ctx, r, scriptPath)
}

func run(ctx context.Context, r *interp.Runner, reader io.Reader, name string) error {
	src, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	prog, err := syntax.Parse(src, name)
	if err != nil {
		return err
	}
	return r.Run(ctx, prog)
}

func runPath(ctx context.Context, r *interp.Runner, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return run(ctx, r, f, path)
}

// runInteractive reads one line at a time and runs it as a complete
// input unit; it does not buffer across lines for multi-line constructs,
// since a real line editor (history, continuation prompts, completion)
// is explicitly out of scope for this shell's core.
func runInteractive(ctx context.Context, r *interp.Runner, stdin io.Reader, stdout io.Writer) error {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 1)
	fmt.Fprint(stdout, "$ ")
	for {
		n, err := stdin.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[0])
			if chunk[0] == '\n' {
				if len(strings.TrimSpace(string(buf))) > 0 {
					if rerr := run(ctx, r, strings.NewReader(string(buf)), ""); rerr != nil {
						var es interp.ExitStatus
						if !errors.As(rerr, &es) {
							fmt.Fprintln(stdout, rerr)
						}
					}
				}
				buf = buf[:0]
				fmt.Fprint(stdout, "$ ")
			}
		}
		if err != nil {
			return nil
		}
	}
}
