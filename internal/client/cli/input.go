package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// prompter asks the user for the fields a command needs.
type prompter interface {
	Ask(label string) (string, error)
	Secret(label string) ([]byte, error)
}

// Terminal access, swapped out in tests.
var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

// console prompts on out and reads answers from the same buffered reader the
// REPL reads commands from.
type console struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

func newConsole(in *bufio.Reader, out io.Writer, fd int) *console {
	return &console{in: in, out: out, fd: fd}
}

// Ask prints "label: " and returns the trimmed answer. An empty answer is
// valid; a final line without newline is accepted at EOF.
func (c *console) Ask(label string) (string, error) {
	if _, err := fmt.Fprintf(c.out, "%s: ", label); err != nil {
		return "", err
	}
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Secret reads a password without echo when fd is a terminal. Piped input is
// taken from the shared reader so scripted sessions keep working. Only the
// line ending is stripped; the caller wipes the result.
func (c *console) Secret(label string) ([]byte, error) {
	if _, err := fmt.Fprintf(c.out, "%s: ", label); err != nil {
		return nil, err
	}

	if !isTerminal(c.fd) {
		line, err := c.readLine()
		if err != nil {
			return nil, err
		}
		return []byte(strings.TrimRight(line, "\r\n")), nil
	}

	pw, err := readPassword(c.fd)
	fmt.Fprintln(c.out)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

func (c *console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return line, nil
}
