package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"mcsounds/internal/extraction"
	"mcsounds/internal/transcode"
)

func renderSummary(s extraction.Summary) string {
	title := "Extraction complete"
	switch {
	case s.Failed():
		title = "Extraction failed"
	case s.DryRun:
		title = "Dry run"
	}

	pairs := [][2]string{
		{"Job", shortID(s.JobID)},
		{"Status", statusText(s)},
		{"Source", s.SourceRoot},
		{"Output", s.OutputRoot},
		{"Formats", formatList(s.Formats)},
	}
	if s.Manifest != "" {
		pairs = append(pairs, [2]string{"Asset index", fmt.Sprintf("%s (newest of %s)", s.ManifestVersion, formatCount(s.Candidates))})
	}
	pairs = append(pairs,
		[2]string{"Scanned objects", formatCount(s.Scanned)},
		[2]string{"Matched", formatCount(s.Matched)},
	)
	if !s.DryRun {
		pairs = append(pairs, [2]string{"Copied", fmt.Sprintf("%s (%s)", formatCount(s.Copied), humanize.Bytes(uint64(max(s.CopiedBytes, 0))))})
		for _, format := range s.Formats {
			pairs = append(pairs, [2]string{"Converted " + string(format), formatCount(s.Converted[format])})
		}
		if len(s.Formats) > 0 {
			pairs = append(pairs, [2]string{"Originals", originalsText(s)})
		}
	}
	pairs = append(pairs,
		[2]string{"Errors", formatCount(s.Errors)},
		[2]string{"Duration", formatDuration(s.Duration())},
	)

	var b strings.Builder
	b.WriteString(renderPairs(title, pairs))
	if len(s.Failures) > 0 {
		rows := make([][]string, 0, len(s.Failures))
		for _, f := range s.Failures {
			rows = append(rows, []string{string(f.Phase), f.Path, f.Message})
		}
		b.WriteString("\n")
		b.WriteString(renderTable("Skipped files", []string{"Phase", "Path", "Error"}, rows, nil))
	}
	return b.String()
}

func statusText(s extraction.Summary) string {
	if s.Failed() {
		return fmt.Sprintf("failed (%s): %s", s.Reason, s.Reason.Message())
	}
	return fmt.Sprintf("copied: %d, errors: %d", s.Copied, s.Errors)
}

func originalsText(s extraction.Summary) string {
	switch {
	case s.KeepOriginals:
		return "kept in " + extraction.OriginalsDir + "/"
	case s.CleanedUp:
		return fmt.Sprintf("removed %s, %s/ deleted", formatCount(s.Removed), extraction.OriginalsDir)
	default:
		return fmt.Sprintf("removed %s, some kept", formatCount(s.Removed))
	}
}

func formatList(formats []transcode.Format) string {
	if len(formats) == 0 {
		return "none"
	}
	return strings.Join(transcode.Strings(formats), ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
