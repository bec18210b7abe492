package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vitrine/internal/catalog"
	"vitrine/internal/config"
	"vitrine/internal/taskaccess"
)

func newArtifactCommand(ctx *commandContext) *cobra.Command {
	artifactCmd := &cobra.Command{
		Use:   "artifact",
		Short: "Manage the artifact catalog",
	}

	artifactCmd.AddCommand(newArtifactImportCommand(ctx))
	artifactCmd.AddCommand(newArtifactListCommand(ctx))

	return artifactCmd
}

func newArtifactImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.toml>",
		Short: "Import or update artifacts from a TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withBackend(cmd, func(backend *taskaccess.Backend) error {
				count, err := catalog.ImportFile(cmd.Context(), backend.Catalog, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d artifact(s) into %s\n", count, backend.Location)
				return nil
			})
		},
	}
}

func newArtifactListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, func(backend *taskaccess.Backend) error {
				artifacts, err := backend.Catalog.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, artifacts)
				}
				if len(artifacts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty")
					return nil
				}
				rows := make([][]string, 0, len(artifacts))
				for _, a := range artifacts {
					rows = append(rows, []string{a.ID, a.Name})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"ID", "Name"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
