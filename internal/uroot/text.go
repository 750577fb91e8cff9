// SPDX-License-Identifier: MPL-2.0

package uroot

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// textCommand is a locally implemented filter or path helper.
type textCommand struct {
	name string
	run  func(env *Env, args []string) error
}

func (c textCommand) Name() string { return c.name }

func (c textCommand) Run(ctx context.Context, args []string) error {
	return commandError(c.name, c.run(EnvFrom(ctx), args[1:]))
}

func textCommands() []Command {
	return []Command{
		textCommand{"basename", runBasename},
		textCommand{"dirname", runDirname},
		textCommand{"head", func(env *Env, args []string) error { return runLines(env, "head", args, firstLines) }},
		textCommand{"tail", func(env *Env, args []string) error { return runLines(env, "tail", args, lastLines) }},
		textCommand{"wc", runWc},
	}
}

var errMissingOperand = errors.New("missing operand")

func runBasename(env *Env, args []string) error {
	if len(args) == 0 {
		return errMissingOperand
	}
	name := path.Base(args[0])
	if len(args) > 1 && name != args[1] {
		name = strings.TrimSuffix(name, args[1])
	}
	_, err := fmt.Fprintln(env.Stdout, name)
	return err
}

func runDirname(env *Env, args []string) error {
	if len(args) == 0 {
		return errMissingOperand
	}
	for _, arg := range args {
		if _, err := fmt.Fprintln(env.Stdout, path.Dir(arg)); err != nil {
			return err
		}
	}
	return nil
}

// runLines implements head and tail: -n N lines of each input.
func runLines(env *Env, name string, args []string, pick func([]string, int) []string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	n := fs.Int("n", 10, "number of lines")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n < 0 {
		return fmt.Errorf("invalid line count %d", *n)
	}

	files := fs.Args()
	return eachInput(env, files, func(label string, r io.Reader) error {
		if len(files) > 1 {
			fmt.Fprintf(env.Stdout, "==> %s <==\n", label)
		}
		lines, err := readLines(r)
		if err != nil {
			return err
		}
		for _, line := range pick(lines, *n) {
			fmt.Fprintln(env.Stdout, line)
		}
		return nil
	})
}

func firstLines(lines []string, n int) []string { return lines[:min(n, len(lines))] }

func lastLines(lines []string, n int) []string { return lines[max(len(lines)-n, 0):] }

func runWc(env *Env, args []string) error {
	fs := flag.NewFlagSet("wc", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	onlyLines := fs.Bool("l", false, "count lines")
	onlyWords := fs.Bool("w", false, "count words")
	onlyBytes := fs.Bool("c", false, "count bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	all := !*onlyLines && !*onlyWords && !*onlyBytes

	files := fs.Args()
	return eachInput(env, files, func(label string, r io.Reader) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		var fields []string
		if all || *onlyLines {
			fields = append(fields, fmt.Sprint(strings.Count(string(data), "\n")))
		}
		if all || *onlyWords {
			fields = append(fields, fmt.Sprint(len(strings.Fields(string(data)))))
		}
		if all || *onlyBytes {
			fields = append(fields, fmt.Sprint(len(data)))
		}
		if len(files) > 0 {
			fields = append(fields, label)
		}
		_, err = fmt.Fprintln(env.Stdout, strings.Join(fields, " "))
		return err
	})
}

// eachInput calls fn for every named file, or once for stdin when files is
// empty or names "-". Relative names resolve against env.Dir.
func eachInput(env *Env, files []string, fn func(label string, r io.Reader) error) error {
	if len(files) == 0 {
		files = []string{"-"}
	}
	for _, name := range files {
		if name == "-" {
			if err := fn(name, stdinOrEmpty(env.Stdin)); err != nil {
				return err
			}
			continue
		}
		p := name
		if !filepath.IsAbs(p) {
			p = filepath.Join(env.Dir, p)
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		err = fn(name, f)
		_ = f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func stdinOrEmpty(r io.Reader) io.Reader {
	if r == nil {
		return strings.NewReader("")
	}
	return r
}
