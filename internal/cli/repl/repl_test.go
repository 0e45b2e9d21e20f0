package repl

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestREPL(input string, exec Executor) (*REPL, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := New(Config{
		In:       strings.NewReader(input),
		Out:      out,
		Commands: []string{"object", "object list", "object get", "system", "system status"},
		Exec:     exec,
	})
	return r, out
}

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit command", "exit\n"},
		{"quit command", "quit\n"},
		{"EOF", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			r, out := newTestREPL(tt.input, func([]string) error {
				called = true
				return nil
			})
			require.NoError(t, r.Run())
			assert.False(t, called)
			assert.True(t, strings.HasPrefix(out.String(), DefaultPrompt))
		})
	}
}

func TestREPL_Run_Executes(t *testing.T) {
	var got [][]string
	r, _ := newTestREPL("\n\nobject get 'ohob 1'\nsystem status\nexit\n", func(args []string) error {
		got = append(got, args)
		return nil
	})

	require.NoError(t, r.Run())
	assert.Equal(t, [][]string{{"object", "get", "ohob 1"}, {"system", "status"}}, got)
	assert.Equal(t, 2, r.history.Len())
}

func TestREPL_Run_LastLineWithoutNewline(t *testing.T) {
	var got []string
	r, _ := newTestREPL("system status", func(args []string) error {
		got = args
		return nil
	})
	require.NoError(t, r.Run())
	assert.Equal(t, []string{"system", "status"}, got)
}

func TestREPL_Run_ReportsErrors(t *testing.T) {
	r, out := newTestREPL("object list\nobject get \"x\nexit\n", func([]string) error {
		return errors.New("connection refused")
	})
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "Error: connection refused")
	assert.Contains(t, out.String(), "Error: unterminated \" quote")
}

func TestREPL_HelpAndCompletion(t *testing.T) {
	r, out := newTestREPL("help\nobject ?\nexit\n", nil)
	require.NoError(t, r.Run())

	text := out.String()
	assert.Contains(t, text, "  system status\n")
	assert.Contains(t, text, "  history\n")
	assert.Contains(t, text, "  object list\n")
}

func TestREPL_HistoryCommand(t *testing.T) {
	r, out := newTestREPL("object list\nhistory\nexit\n", func([]string) error { return nil })
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "   1  object list\n")
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"object list", []string{"object", "list"}, false},
		{"  object   get\tid ", []string{"object", "get", "id"}, false},
		{`object create --owner "alice smith"`, []string{"object", "create", "--owner", "alice smith"}, false},
		{`a 'b "c"' d`, []string{"a", `b "c"`, "d"}, false},
		{`a b\ c`, []string{"a", "b c"}, false},
		{`a ""`, []string{"a", ""}, false},
		{`a "b`, nil, true},
		{`a \`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
