package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/dgaops/internal/domain/model"
	"github.com/okian/dgaops/internal/domain/playbook"
)

const keyTailLength = 6

func newPlaybookCommand(a *app) *cobra.Command {
	var findingsFile string

	cmd := &cobra.Command{
		Use:   "playbook",
		Short: "Generate an incident-response playbook from alert findings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := a.cfg.APIKey()
			if err != nil {
				return cliError{code: exitConfig, err: fmt.Errorf("%w\nLinux/macOS:  export %s='YOUR_API_KEY_HERE'", err, a.cfg.APIKeyEnv)}
			}
			findings, err := readFindings(cmd.InOrStdin(), findingsFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Using %s ending with ...%s\n", a.cfg.APIKeyEnv, keyTail(key))
			fmt.Fprintln(out, "---")
			fmt.Fprintln(out, "Context: Generating a prescriptive playbook from alert findings.")
			fmt.Fprintln(out, "Input being sent to the model:")
			fmt.Fprintln(out, strings.TrimRight(string(findings), "\n"))
			fmt.Fprintln(out, strings.Repeat("-", 50))
			fmt.Fprintln(out, "\n--- AI-Generated Playbook ---")

			res, err := a.newService().Playbook(cmd.Context(), findings)
			if err != nil {
				return cliError{code: exitConfig, err: err}
			}
			fmt.Fprintln(out, res.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&findingsFile, "findings-file", "", `file with alert findings, "-" for stdin (default: built-in sample alert)`)
	playbookFlags(cmd)
	return cmd
}

// readFindings loads findings from path, stdin for "-", or the sample alert.
func readFindings(stdin io.Reader, path string) (model.Findings, error) {
	var (
		raw []byte
		err error
	)
	switch path {
	case "":
		return playbook.SampleFindings, nil
	case "-":
		raw, err = io.ReadAll(stdin)
	default:
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read findings: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", fmt.Errorf("read findings: %s is empty", displayName(path))
	}
	return model.Findings(raw), nil
}

func displayName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}

// keyTail returns the last characters of key, or nothing when the key is
// too short to mask.
func keyTail(key string) string {
	r := []rune(key)
	if len(r) <= keyTailLength {
		return ""
	}
	return string(r[len(r)-keyTailLength:])
}
