package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/devpad/websh/core/config"
)

// initCmd writes a default configuration file for editing.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		osFs := afero.NewOsFs()
		if _, err := osFs.Stat(cfgPath); err == nil {
			return fmt.Errorf("%s already exists", cfgPath)
		}

		if err := config.Save(osFs, cfgPath, config.Default()); err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", cfgPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
