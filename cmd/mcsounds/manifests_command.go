package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mcsounds/internal/assets"
)

type manifestRow struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Version  string `json:"version"`
	Selected bool   `json:"selected"`
	Sounds   int    `json:"sounds"`
	Bytes    int64  `json:"bytes"`
	Error    string `json:"error,omitempty"`
}

func newManifestsCommand(ctx *commandContext) *cobra.Command {
	var source string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "manifests",
		Short: "List the asset indexes of a Minecraft install in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := pathOrDefault(source, cfg.Paths.MinecraftDir)
			if err != nil {
				return fmt.Errorf("resolve source: %w", err)
			}
			candidates, err := assets.ListManifests(root)
			if err != nil {
				return err
			}

			ext := cfg.Extraction.TargetExtension
			rows := make([]manifestRow, 0, len(candidates))
			for i, candidate := range candidates {
				row := manifestRow{
					Name:     candidate.Name,
					Path:     candidate.Path,
					Version:  candidate.Version(),
					Selected: i == 0,
				}
				manifest, err := assets.Load(candidate.Path)
				if err != nil {
					row.Error = err.Error()
				} else if index, err := manifest.Index(ext); err != nil {
					row.Error = err.Error()
				} else {
					row.Sounds = len(index)
					row.Bytes = manifest.Bytes(ext)
				}
				rows = append(rows, row)
			}

			if jsonOut {
				return writeJSON(cmd, rows)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderManifestTable(root, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Minecraft installation folder (defaults to paths.minecraft_dir)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the listing as JSON")
	return cmd
}

func renderManifestTable(root string, rows []manifestRow) string {
	table := make([][]string, 0, len(rows))
	for i, row := range rows {
		marker := ""
		if row.Selected {
			marker = "*"
		}
		sounds, size := formatCount(row.Sounds), humanize.Bytes(uint64(max(row.Bytes, 0)))
		if row.Error != "" {
			sounds, size = "-", row.Error
		}
		table = append(table, []string{strconv.Itoa(i + 1), marker, row.Name, sounds, size})
	}
	return renderTable(assets.IndexesDir(root), []string{"#", "Use", "Index", "Sounds", "Size"}, table,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight})
}
