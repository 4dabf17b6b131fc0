package session

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalPrompter asks for login input on a terminal. When In is not a
// terminal the secret is read as a plain line so scripted logins still work.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	reader *bufio.Reader
}

// Compile-time check to ensure TerminalPrompter implements Prompter
var _ Prompter = (*TerminalPrompter)(nil)

// NewTerminalPrompter prompts on stdin and writes prompts to out.
func NewTerminalPrompter(out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: out}
}

// Identity prints "Email: " or "Email (last): " and reads one line.
func (p *TerminalPrompter) Identity(last string) (string, error) {
	if last != "" {
		fmt.Fprintf(p.Out, "Email (%s): ", last)
	} else {
		fmt.Fprint(p.Out, "Email: ")
	}
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Secret reads the password with echo disabled.
func (p *TerminalPrompter) Secret() (string, error) {
	fmt.Fprint(p.Out, "Password: ")

	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		line, err := p.readLine()
		return strings.TrimRight(line, "\r\n"), err
	}

	secret, err := term.ReadPassword(fd)
	// ReadPassword swallows the newline the user typed
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

func (p *TerminalPrompter) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
