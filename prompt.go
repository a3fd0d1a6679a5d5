package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// prompter is the single interactive surface of the tool. Prompts go
// to out, answers come line by line from in.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	eof bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) say(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// line prints the prompt and returns the next input line with
// surrounding whitespace trimmed.
func (p *prompter) line(format string, args ...interface{}) string {
	fmt.Fprintf(p.out, format, args...)
	text, err := p.in.ReadString('\n')
	if err != nil {
		p.eof = true
	}
	return strings.TrimSpace(text)
}

// yesNo asks question until it gets a y/n answer. A nil def requires
// an explicit answer; otherwise an empty line picks the default.
func (p *prompter) yesNo(question string, def *bool) bool {
	suffix := " (y/n) "
	if def != nil {
		if *def {
			suffix = " ([y]/n) "
		} else {
			suffix = " (y/[n]) "
		}
	}
	for {
		response := strings.ToLower(p.line("%s%s", question, suffix))
		if response == "" && def != nil {
			return *def
		}
		switch response {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		if p.eof {
			// Out of input. Fall back to the default where one
			// exists; a question that demanded an explicit answer
			// resolves to no, never to the affirmative.
			if def != nil {
				return *def
			}
			return false
		}
		p.say("Please respond with 'y' or 'n'.")
	}
}

// list asks for a comma separated list of values. An empty response
// reuses the stored values so resumed sessions stay short.
func (p *prompter) list(name string, stored []string) []string {
	raw := p.line("Enter %s separated by commas, or leave empty to reuse the stored values: ", name)
	if raw == "" {
		return append([]string(nil), stored...)
	}
	var values []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			values = append(values, item)
		}
	}
	return values
}
