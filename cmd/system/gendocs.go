package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func NewGenDocsCommand() *cobra.Command {
	var (
		outDir string
		format string
	)

	cmd := &cobra.Command{
		Use:   "gendocs",
		Short: "Generate CLI documentation as Markdown or man pages",
		Long: `Generate documentation for every medstage command.

Markdown goes to ./docs/cli by default, man pages (--format man) to
./docs/man. Override the directory with --outdir.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = filepath.Join("docs", "cli")
				if format == "man" {
					outDir = filepath.Join("docs", "man")
				}
			}
			absOutDir, err := filepath.Abs(outDir)
			if err != nil {
				return fmt.Errorf("failed to resolve absolute path for %q: %w", outDir, err)
			}
			if err := os.MkdirAll(absOutDir, 0o755); err != nil {
				return fmt.Errorf("failed to create docs directory %q: %w", absOutDir, err)
			}

			root := cmd.Root()
			root.DisableAutoGenTag = true

			switch format {
			case "markdown", "md":
				err = doc.GenMarkdownTree(root, absOutDir)
			case "man":
				err = doc.GenManTree(root, &doc.GenManHeader{Title: "MEDSTAGE", Section: "1"}, absOutDir)
			default:
				return fmt.Errorf("unknown format %q (use markdown or man)", format)
			}
			if err != nil {
				return fmt.Errorf("failed to generate CLI docs: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "CLI docs (%s) generated in %s\n", format, absOutDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "outdir", "", "Output directory for generated docs")
	cmd.Flags().StringVar(&format, "format", "markdown", "markdown or man")

	return cmd
}
