package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TomasRacil/WanderPlan-sub000/internal/config"
	"github.com/TomasRacil/WanderPlan-sub000/internal/paths"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and trip storage",
		Long: "Create the configuration directory with a default config.yaml and\n" +
			"initialize the data directory. An explicit --data-dir is recorded in\n" +
			"config.yaml so later commands find it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.dataDir != "" {
				dir, err := paths.ResolveDataDir(a.dataDir, "")
				if err != nil {
					return sysError(err)
				}
				if err := config.SetDataDir(a.configDir, dir); err != nil {
					return sysError(fmt.Errorf("write config: %w", err))
				}
				a.cfg.DataDir = dir
			}

			dataDir, err := paths.ResolveDataDir(a.dataDir, a.cfg.DataDir)
			if err != nil {
				return sysError(err)
			}
			backend := sqlite.NewBackend(a.log)
			if err := backend.Attach(a.cfg.Store(dataDir)); err != nil {
				return sysError(fmt.Errorf("initialize storage: %w", err))
			}
			if err := backend.Detach(); err != nil {
				return sysError(fmt.Errorf("finalize storage: %w", err))
			}

			if a.jsonMode {
				return printJSON(cmd, map[string]string{"config_dir": a.configDir, "data_dir": dataDir})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wanderplan initialized\nconfig: %s\ndata:   %s\n", a.configDir, dataDir)
			return nil
		},
	}
}
