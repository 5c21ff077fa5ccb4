// Package ux covers the interactive surface of the feedback flow:
// prompting, the recent-commands table and sticky user preferences.
package ux

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrNoTTY is returned when an interactive prompt is requested without a
// terminal attached.
var ErrNoTTY = errors.New("no tty available for interactive prompt")

// Prompter asks questions on a terminal.
type Prompter struct {
	in        *bufio.Reader
	out       io.Writer
	isTTYFunc func() bool
}

// NewPrompter builds a Prompter over stdin/stdout.
func NewPrompter() *Prompter {
	return &Prompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		isTTYFunc: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// NewPrompterIO builds a Prompter over arbitrary streams, for tests.
func NewPrompterIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:        bufio.NewReader(in),
		out:       out,
		isTTYFunc: func() bool { return true },
	}
}

// Ask prints msg and returns one trimmed line of input.
func (p *Prompter) Ask(msg string) (string, error) {
	if !p.isTTYFunc() {
		return "", ErrNoTTY
	}
	fmt.Fprint(p.out, msg)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Selection is the outcome of the issue prompt.
type Selection struct {
	// Quit is set when the user backed out.
	Quit bool

	// Index is the chosen entry: 0 for a generic issue, 1..max for a
	// recent command.
	Index int
}

// PromptCommandChoice asks which recent command to file an issue for.
// Input outside [0, max] re-prompts with a help string; q quits.
func (p *Prompter) PromptCommandChoice(max int) (Selection, error) {
	help := fmt.Sprintf("Please choose between 0 and %d, or enter q to quit: ", max)
	msg := "\nEnter the number of the command you would like to create an issue for. Enter q to quit: "

	for {
		ans, err := p.Ask(msg)
		if err != nil {
			return Selection{}, err
		}
		switch strings.ToLower(ans) {
		case "q", "quit":
			return Selection{Quit: true}, nil
		}
		n, err := strconv.Atoi(ans)
		if err != nil {
			fmt.Fprint(p.out, help)
			msg = ""
			continue
		}
		if n < 0 || n > max {
			fmt.Fprint(p.out, help)
			msg = ""
			continue
		}
		return Selection{Index: n}, nil
	}
}

// PromptYesNo asks whether to create a generic issue. Returns true for
// yes, false for no or quit.
func (p *Prompter) PromptYesNo() (bool, error) {
	help := "Please choose between Y and N: "
	msg := "Would you like to create an issue? Enter Y or N: "

	for {
		ans, err := p.Ask(msg)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(ans) {
		case "y", "yes":
			return true, nil
		case "n", "no", "q":
			return false, nil
		}
		fmt.Fprint(p.out, help)
		msg = ""
	}
}
