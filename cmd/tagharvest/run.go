package main

import (
	"github.com/spf13/cobra"

	"tagharvest/pkg/checkpoint"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover and then hydrate in one go",
	Long: `Run discover over the configured tags and hydrate the resulting
checkpoint. An interrupt keeps the checkpoint saved so far and skips
hydration; run hydrate later to finish.`,
	Example: `  tagharvest run --target 200 --output rows.csv`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := discoverFlags()
		for k, v := range hydrateFlags() {
			flags[k] = v
		}
		s, err := newSession(flags)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		discovered, err := runDiscover(ctx, s)
		if err != nil {
			return err
		}
		s.finish("discover", discovered)

		if ctx.Err() != nil {
			s.log.Warn("interrupted, skipping hydration")
			return nil
		}
		cp := checkpoint.NewStore(s.cfg.Discovery.Checkpoint, s.log).Load()
		hydrated, err := runHydrate(ctx, s, cp)
		if err != nil {
			return err
		}
		s.finish("hydrate", hydrated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addDiscoverFlags(runCmd)
	addHydrateFlags(runCmd)
}
