package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/phishscan.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new phishscan configuration file",
		Long: `Initialize creates a new .phishscan configuration file in the current directory.

The generated file documents every key:
- Extra denylist domains and denylist files
- Suspicious words for the heuristic stage
- The labeled corpus used to train the classifier
- Resolution failure policy and heuristic mode

Examples:
  # Create .phishscan in current directory
  phishscan init

  # Create config file at a specific path
  phishscan init -o myconfig.yaml

  # Force overwrite existing file
  phishscan init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/phishscan.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to tune detection, for example:")
	fmt.Fprintln(out, "  - Add domains to the denylist")
	fmt.Fprintln(out, "  - Point corpus_file at your own labeled URLs")
	fmt.Fprintln(out, "  - Set resolution_failure to closed")

	return nil
}
