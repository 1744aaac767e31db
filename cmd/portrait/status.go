package main

import (
	"fmt"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/storage"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	var ov overrides
	cmd := &cobra.Command{
		Use:   "status <subject>",
		Short: "Show which portraits of a subject exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := args[0]
			if err := domain.ValidateSubjectName(subject); err != nil {
				return err
			}
			cfg, log, err := root.loadConfig(ov, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store, err := storage.OpenStore(afero.NewOsFs(), cfg.Generation.OutputDir, log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			existing := store.Status(subject, domain.AllStyles())
			fmt.Fprintf(out, "%s in %s\n", subject, store.Dir())
			for _, style := range domain.AllStyles() {
				mark := "missing"
				if existing[style] {
					mark = "exists"
				}
				fmt.Fprintf(out, "  %-9s %s\n", style, mark)
			}

			files, err := store.List(subject)
			if err != nil {
				return err
			}
			if len(files) > 0 {
				fmt.Fprintln(out, "Files:")
				for _, f := range files {
					fmt.Fprintf(out, "  %s\n", f)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&ov.outputDir, "output-dir", "o", "", "output directory")
	return cmd
}
