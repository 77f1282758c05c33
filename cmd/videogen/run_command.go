package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"videogen/internal/notifications"
	"videogen/internal/pipeline"
	"videogen/internal/preflight"
	"videogen/internal/taskstore"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run <script.json>",
		Short: "Generate, wait for, and assemble every clip in a project script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			if !skipPreflight {
				results := preflight.Run(cfg)
				if !preflight.Passed(results) {
					printPreflight(cmd.OutOrStdout(), results)
					return fmt.Errorf("preflight checks failed")
				}
			}

			script, err := pipeline.LoadScript(args[0])
			if err != nil {
				return err
			}

			store, err := taskstore.Open(cfg.Paths.TaskTable)
			if err != nil {
				return err
			}
			defer store.Close()

			p := pipeline.New(cfg, store, notifications.NewService(cfg), logger)
			manifestPath, err := p.Run(cmd.Context(), script)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run complete. Manifest: %s\n", manifestPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks before the run")
	return cmd
}

func newAssembleCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assemble <script.json>",
		Short: "Assemble already-generated clips into the final project video",
		Long: "Assemble skips generation entirely: it normalizes and concatenates " +
			"whatever clips already exist on disk for the script's lines, merging " +
			"subtitle tracks when present.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			script, err := pipeline.LoadScript(args[0])
			if err != nil {
				return err
			}

			store, err := taskstore.Open(cfg.Paths.TaskTable)
			if err != nil {
				return err
			}
			defer store.Close()

			p := pipeline.New(cfg, store, notifications.NewService(cfg), logger)
			finalPath, err := p.Assemble(cmd.Context(), script, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Final video: %s\n", finalPath)
			return nil
		},
	}
}
