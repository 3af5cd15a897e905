package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers from the user. Passwords are read without echo
// when stdin is a terminal.
type prompter struct {
	reader *bufio.Reader
	out    io.Writer
	stdin  *os.File
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{reader: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.stdin = f
	}
	return p
}

// line prints label and returns the trimmed answer. A final line without a
// newline is accepted.
func (p *prompter) line(label string) (string, error) {
	if _, err := fmt.Fprintf(p.out, "%s: ", label); err != nil {
		return "", err
	}
	s, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(s) > 0 {
			return strings.TrimSpace(s), nil
		}
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// required repeats the prompt until a non-empty answer arrives.
func (p *prompter) required(label string) (string, error) {
	for {
		s, err := p.line(label)
		if err != nil || s != "" {
			return s, err
		}
		fmt.Fprintf(p.out, "%s is required\n", label)
	}
}

func (p *prompter) password(label string) (string, error) {
	if p.stdin == nil {
		return p.line(label)
	}
	if _, err := fmt.Fprintf(p.out, "%s: ", label); err != nil {
		return "", err
	}
	pw, err := term.ReadPassword(int(p.stdin.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
