package repl

import (
	"sort"
	"strings"
)

// builtins are handled by the REPL itself.
var builtins = []string{"help", "history", "exit", "quit"}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over commands plus the REPL builtins.
func NewCompleter(commands []string) *Completer {
	seen := make(map[string]struct{}, len(commands)+len(builtins))
	all := make([]string, 0, len(commands)+len(builtins))
	for _, list := range [][]string{commands, builtins} {
		for _, cmd := range list {
			if _, dup := seen[cmd]; dup || cmd == "" {
				continue
			}
			seen[cmd] = struct{}{}
			all = append(all, cmd)
		}
	}
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
