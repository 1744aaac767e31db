package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// errIncomplete makes the process exit non-zero when any portrait failed.
var errIncomplete = errors.New("some portraits could not be generated")

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		styles []string
		force  bool
		ov     overrides
	)
	cmd := &cobra.Command{
		Use:   "generate <subject>",
		Short: "Generate portraits of one subject",
		Example: `  portrait generate "Ada Lovelace"
  portrait generate "Albert Einstein" --styles BW --styles Sepia --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseStyleFlags(styles)
			if err != nil {
				return err
			}
			cfg, log, err := root.loadConfig(ov, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			app, err := newApplication(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer app.cleanup()

			result, err := app.generator.Generate(cmd.Context(), args[0], parsed, force)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			if !result.Success {
				return errIncomplete
			}
			return nil
		},
	}
	addGenerationFlags(cmd, &styles, &force, &ov)
	return cmd
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	var (
		styles []string
		force  bool
		file   string
		ov     overrides
	)
	cmd := &cobra.Command{
		Use:   "batch [subject...]",
		Short: "Generate portraits of several subjects in turn",
		Example: `  portrait batch "Ada Lovelace" "Alan Turing"
  portrait batch --file subjects.txt --styles Color`,
		RunE: func(cmd *cobra.Command, args []string) error {
			subjects := append([]string{}, args...)
			if file != "" {
				fromFile, err := readSubjects(afero.NewOsFs(), file)
				if err != nil {
					return err
				}
				subjects = append(subjects, fromFile...)
			}
			if len(subjects) == 0 {
				return errors.New("no subjects given: pass names as arguments or use --file")
			}
			parsed, err := parseStyleFlags(styles)
			if err != nil {
				return err
			}

			cfg, log, err := root.loadConfig(ov, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			app, err := newApplication(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer app.cleanup()

			results, err := app.generator.Batch(cmd.Context(), subjects, parsed, force)
			out := cmd.OutOrStdout()
			failed := 0
			for _, result := range results {
				printResult(out, result)
				if !result.Success {
					failed++
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d of %d subjects complete\n", len(results)-failed, len(results))
			if failed > 0 {
				return errIncomplete
			}
			return nil
		},
	}
	addGenerationFlags(cmd, &styles, &force, &ov)
	cmd.Flags().StringVar(&file, "file", "", "read subjects from a file, one per line")
	return cmd
}

// readSubjects reads one subject per line. Blank lines and lines starting
// with # are ignored.
func readSubjects(fs afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subjects file: %w", err)
	}
	var subjects []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		subjects = append(subjects, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subjects file: %w", err)
	}
	return subjects, nil
}

// parseStyleFlags leaves an empty list empty so every style is generated.
func parseStyleFlags(values []string) ([]domain.Style, error) {
	if len(values) == 0 {
		return nil, nil
	}
	return domain.ParseStyles(values)
}

func printResult(w io.Writer, r *domain.PortraitResult) {
	state := "complete"
	if !r.Success {
		state = "incomplete"
	}
	fmt.Fprintf(w, "%s: %s in %.1fs\n", r.Subject, state, r.GenerationSeconds())

	for _, style := range domain.AllStyles() {
		eval, ok := r.Evaluation[style]
		if !ok {
			continue
		}
		mark := "FAIL"
		if eval.Passed {
			mark = "ok"
		}
		line := fmt.Sprintf("  %-9s %-4s", style, mark)
		if file := r.Files[style]; file != "" {
			line += " " + filepath.Base(file)
		}
		switch {
		case r.Skipped[style]:
			line += " (existing)"
		case r.Attempts[style] > 0:
			line += fmt.Sprintf(" (attempts %d, score %.2f)", r.Attempts[style], eval.OverallScore())
		}
		fmt.Fprintln(w, line)
		for _, issue := range eval.Issues {
			fmt.Fprintf(w, "            - %s\n", issue)
		}
	}
	for _, msg := range r.Errors {
		fmt.Fprintf(w, "  error: %s\n", msg)
	}
}
