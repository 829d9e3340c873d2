package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/mfascan.yaml
var configTemplate embed.FS

// configFileName is where init writes the template by default.
const configFileName = ".mfascan"

// NewInitCmd creates the "init" subcommand, which writes a starter
// configuration file.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new mfascan configuration file",
		Long: `Initialize creates a new .mfascan configuration file in the current directory.

The generated file includes:
- Default analysis threshold overrides
- Commented examples for site-specific configurations
- Documentation for all available options

Examples:
  # Create .mfascan in current directory
  mfascan init

  # Create config file at a specific path
  mfascan init -o myconfig.yaml

  # Force overwrite existing file
  mfascan init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd writes the embedded configuration template to disk.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/mfascan.yaml")
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

	fmt.Printf("Created configuration file: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure site-specific settings such as:")
	fmt.Println("  - Ad count and visibility threshold overrides")
	fmt.Println("  - Scroll density allowances for layout-heavy sites")
	fmt.Println("  - Ad refresh interval tolerances")

	return nil
}
