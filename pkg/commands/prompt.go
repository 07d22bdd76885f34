package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for input. Passwords are read without echo when
// In is a terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewPrompter reads from in and writes questions to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{In: in, Out: out}
}

func (p *Prompter) line() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	s, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// Ask prints question and returns the trimmed answer
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.Out, question)
	s, err := p.line()
	return strings.TrimSpace(s), err
}

// Password prints question and reads a secret
func (p *Prompter) Password(question string) (string, error) {
	fmt.Fprint(p.Out, question)
	if f, ok := p.In.(*os.File); ok && p.reader == nil && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.Out)
		return string(secret), err
	}
	return p.line()
}

// Confirm asks a yes/no question; only y or yes confirms
func (p *Prompter) Confirm(question string) bool {
	answer, err := p.Ask(question + " (y/N): ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
