package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPrompt is the prompt shown before each line.
const DefaultPrompt = "objhost> "

// Executor runs one parsed command line.
type Executor func(args []string) error

// Config configures a REPL.
type Config struct {
	In     io.Reader
	Out    io.Writer
	Prompt string

	// Commands feeds completion and help.
	Commands []string

	// HistoryFile is loaded on start and saved on exit. Empty disables
	// persistence.
	HistoryFile string

	Exec Executor
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	exec      Executor
	completer *Completer
	history   *History
}

// New creates a new REPL instance.
func New(cfg Config) *REPL {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	return &REPL{
		input:     cfg.In,
		output:    cfg.Out,
		prompt:    cfg.Prompt,
		exec:      cfg.Exec,
		completer: NewCompleter(cfg.Commands),
		history:   NewHistory(cfg.HistoryFile, DefaultHistorySize),
	}
}

// DefaultHistoryPath returns ~/.objhost/history.
func DefaultHistoryPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".objhost", "history")
}

// Run starts the REPL loop. It returns nil on exit, quit or end of input.
func (r *REPL) Run() error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: history not loaded: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: history not saved: %v\n", err)
		}
	}()

	reader := bufio.NewReader(r.input)
	for {
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}

		if done := r.handle(line); done {
			return nil
		}
		if eof {
			fmt.Fprintln(r.output)
			return nil
		}
	}
}

// handle processes one non-empty line and reports whether to exit.
func (r *REPL) handle(line string) bool {
	switch {
	case line == "exit" || line == "quit":
		return true
	case line == "help":
		r.printList(r.completer.Complete(""))
		return false
	case line == "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
		return false
	case strings.HasSuffix(line, "?"):
		r.printList(r.completer.Complete(strings.TrimSpace(strings.TrimSuffix(line, "?"))))
		return false
	}

	r.history.Add(line)

	args, err := SplitArgs(line)
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return false
	}
	if r.exec == nil {
		return false
	}
	if err := r.exec(args); err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
	}
	return false
}

func (r *REPL) printList(items []string) {
	for _, item := range items {
		fmt.Fprintf(r.output, "  %s\n", item)
	}
}

// SplitArgs splits a line into arguments. Single and double quotes group
// words; a backslash escapes the next character outside single quotes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, ch := range line {
		switch {
		case escaped:
			current.WriteRune(ch)
			escaped = false
		case ch == '\\' && quote != '\'':
			escaped = true
			inArg = true
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				current.WriteRune(ch)
			}
		case ch == '"' || ch == '\'':
			quote = ch
			inArg = true
		case ch == ' ' || ch == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(ch)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
