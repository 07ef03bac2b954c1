package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xtags/internal/config"
	"xtags/internal/errors"
	"xtags/internal/paths"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize xtags configuration",
	Long:  "Creates a .xtags/ directory with a default config.toml in the current directory",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Reinitialize, removing any existing .xtags directory")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	repoRoot := mustRepoRoot()

	stateDir := paths.StateDir(repoRoot)
	if _, statErr := os.Stat(stateDir); statErr == nil {
		if !initForce {
			// Already initialized is success, so init is safe in CI.
			fmt.Println("xtags already initialized.")
			fmt.Printf("Configuration at: %s\n", paths.ConfigPath(repoRoot))
			fmt.Println("\nRun 'xtags init --force' to reinitialize.")
			return nil
		}
		if err := os.RemoveAll(stateDir); err != nil {
			return errors.NewXtagsError(errors.InternalError,
				"failed to remove existing .xtags directory", err)
		}
	}

	if _, err := paths.EnsureStateDir(repoRoot); err != nil {
		return errors.NewXtagsError(errors.InternalError,
			"failed to create .xtags directory", err)
	}
	if err := config.DefaultConfig().Save(repoRoot); err != nil {
		return err
	}

	fmt.Println("xtags initialized.")
	fmt.Printf("Configuration written to: %s\n", paths.ConfigPath(repoRoot))
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set parser in .xtags/config.toml to your parser command")
	fmt.Println("  2. Declare tag kinds with kinds or a kinds_file")
	fmt.Println("  3. Run 'xtags index <files>' to generate tags")
	return nil
}
