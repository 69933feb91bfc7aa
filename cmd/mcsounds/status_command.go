package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mcsounds/internal/preflight"
	"mcsounds/internal/transcode"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var source, output string
	var formatNames []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the Minecraft install, output folder, and ffmpeg setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sourceRoot, err := pathOrDefault(source, cfg.Paths.MinecraftDir)
			if err != nil {
				return fmt.Errorf("resolve source: %w", err)
			}
			outputRoot, err := pathOrDefault(output, cfg.Paths.OutputDir)
			if err != nil {
				return fmt.Errorf("resolve output: %w", err)
			}
			names := cfg.Extraction.Formats
			if cmd.Flags().Changed("format") {
				names = formatNames
			}
			formats, err := transcode.ParseFormats(names)
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg, sourceRoot, outputRoot, formats)
			failed := preflight.Failed(results)
			if jsonOut {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := isTerminal(out)
				fmt.Fprintln(out, renderStatusLine("Config", statusInfo, dashIfEmpty(ctx.configPath), colorize))
				fmt.Fprintln(out, renderStatusLine("Formats", statusInfo, formatList(formats), colorize))
				for _, result := range results {
					fmt.Fprintln(out, renderStatusLine(result.Name, resultKind(result), result.Detail, colorize))
				}
			}
			if len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, result := range failed {
					names = append(names, result.Name)
				}
				return fmt.Errorf("%d check(s) failed: %s", len(failed), strings.Join(names, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Minecraft installation folder (defaults to paths.minecraft_dir)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output folder (defaults to paths.output_dir)")
	cmd.Flags().StringSliceVarP(&formatNames, "format", "f", nil, "Formats to check encoders for")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print check results as JSON")
	return cmd
}

func resultKind(result preflight.Result) statusKind {
	switch {
	case result.Passed:
		return statusOK
	case result.Optional:
		return statusWarn
	default:
		return statusError
	}
}
