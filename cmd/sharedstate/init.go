package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sharedstate/internal/config"
	"github.com/vango-dev/sharedstate/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		useYAML bool
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if config.Exists(dir) && !force {
				return errors.New(errors.CodeInvalidUsage).
					WithDetail("a config file already exists in " + dir).
					WithSuggestion("Pass --force to overwrite it")
			}

			name := config.ConfigFileName
			if useYAML {
				name = config.YAMLFileName
			}
			path := filepath.Join(dir, name)
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Created %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useYAML, "yaml", false, "Write sharedstate.yaml instead of JSON")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config")

	return cmd
}
