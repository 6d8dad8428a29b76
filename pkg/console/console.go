// Package console implements a small interactive command loop for
// driving the pf/rhf layers by hand during development, mirroring the
// original system's testpf_* drivers: allocate/dispose/get/unfix,
// insert/get/delete/scan, one command per line.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Command is one REPL action: given the full input line and the
// session, returns output text (or an error).
type Command func(payload string, session *Session) (string, error)

// TriggerHelp is the meta-command that prints every registered
// command's help string.
const TriggerHelp = ".help"

// ErrPrefix is prepended to any error before it's written to output.
const ErrPrefix = "ERROR: "

// ErrCommandNotFound is reported when the input's first field doesn't
// match any registered command.
var ErrCommandNotFound = errors.New("command not found")

// Console is a set of named commands plus their help strings.
type Console struct {
	commands map[string]Command
	help     map[string]string
}

// Session carries state across commands within one Run: a client
// identifier (useful for distinguishing log lines across concurrent
// consoles) and whatever command-specific state the caller attaches.
type Session struct {
	ClientID uuid.UUID
	State    any
}

// New constructs an empty Console.
func New() *Console {
	return &Console{commands: make(map[string]Command), help: make(map[string]string)}
}

// AddCommand registers trigger, overwriting any existing command with
// the same trigger.
func (c *Console) AddCommand(trigger string, action Command, help string) {
	if trigger == TriggerHelp {
		return
	}
	c.commands[trigger] = action
	c.help[trigger] = help
}

// HelpString renders every registered command's help line.
func (c *Console) HelpString() string {
	var sb strings.Builder
	for k, v := range c.help {
		fmt.Fprintf(&sb, "%s: %s\n", k, v)
	}
	return sb.String()
}

// Run reads whitespace-separated commands from input, one per line,
// dispatches them, and writes results to output until input is
// exhausted. input/output default to stdin/stdout.
func (c *Console) Run(session *Session, prompt string, input io.Reader, output io.Writer) {
	if input == nil {
		input = os.Stdin
	}
	if output == nil {
		output = os.Stdout
	}
	if session == nil {
		session = &Session{ClientID: uuid.New()}
	}

	scanner := bufio.NewScanner(input)
	io.WriteString(output, prompt)
	for scanner.Scan() {
		io.WriteString(output, c.eval(scanner.Text(), session))
		io.WriteString(output, prompt)
	}
	io.WriteString(output, "\n")
}

// eval runs a single input line to completion and returns everything
// it produced, already newline-terminated where needed. It never
// touches output directly, which keeps Run's loop to two writes.
func (c *Console) eval(line string, session *Session) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}

	switch trigger := fields[0]; trigger {
	case TriggerHelp:
		return c.HelpString()
	default:
		command, exists := c.commands[trigger]
		if !exists {
			return fmt.Sprintf("%s%s\n", ErrPrefix, ErrCommandNotFound)
		}
		return formatResult(command(line, session))
	}
}

func formatResult(result string, err error) string {
	if err != nil {
		return fmt.Sprintf("%s%s\n", ErrPrefix, err)
	}
	if result == "" {
		return ""
	}
	if !strings.HasSuffix(result, "\n") {
		return result + "\n"
	}
	return result
}
