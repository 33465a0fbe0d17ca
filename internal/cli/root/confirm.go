package root

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"
)

// confirm guards commands marked confirm in commands.yaml. --yes skips the
// question; anything but y or yes aborts with exit status 1.
func confirm(ctx CommandContext, cliCmd *cli.Command) error {
	if !ctx.Spec.Confirm || (cliCmd != nil && cliCmd.Bool("yes")) {
		return nil
	}
	question := strings.TrimSuffix(strings.TrimSpace(ctx.Spec.Summary), ".")
	if question == "" {
		question = "Run " + ctx.Spec.Name
	}
	ok, err := AskYesNo(ctx.Stdin, ctx.ErrOut, question+"?")
	if err != nil {
		return err
	}
	if !ok {
		return cli.Exit("aborted", 1)
	}
	return nil
}

// AskYesNo prints question and reads one answer line. A closed or empty
// input answers no.
func AskYesNo(in io.Reader, out io.Writer, question string) (bool, error) {
	if out != nil {
		if _, err := fmt.Fprintf(out, "%s [y/N] ", question); err != nil {
			return false, err
		}
	}
	if in == nil {
		return false, nil
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
