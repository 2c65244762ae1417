package console

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
)

const (
	Yes = "y"
	No  = "n"
)

// Ask reads one line of free-form input.
func Ask(question string) (string, error) {
	rl, err := readline.New(question + " ")
	if err != nil {
		return "", err
	}
	defer func() { _ = rl.Close() }()
	line, err := rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. Anything but an explicit yes is a no.
func Confirm(question string) (bool, error) {
	answer, err := Ask(fmt.Sprintf("%s [%s/%s]:", question, Yes, strings.ToUpper(No)))
	if err != nil {
		return false, err
	}
	return strings.ToLower(answer) == Yes, nil
}
