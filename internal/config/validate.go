package config

import (
	"errors"
	"fmt"
	"strings"
)

var allowedFormats = map[string]struct{}{"mp3": {}, "flac": {}, "wav": {}}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must not be negative")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.MinecraftDir != "" && c.Paths.OutputDir != "" && c.Paths.MinecraftDir == c.Paths.OutputDir {
		return errors.New("paths.output_dir must differ from paths.minecraft_dir")
	}
	return nil
}

func (c *Config) validateExtraction() error {
	for _, f := range c.Extraction.Formats {
		if _, ok := allowedFormats[f]; !ok {
			return fmt.Errorf("extraction.formats: unsupported format %q (expected mp3, flac, or wav)", f)
		}
	}
	if c.Extraction.TargetExtension == "." {
		return errors.New("extraction.target_extension must name an extension")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.MP3BitrateKbps < 32 || c.Transcode.MP3BitrateKbps > 320 {
		return errors.New("transcode.mp3_bitrate_kbps must be between 32 and 320")
	}
	if c.Transcode.Workers < 1 || c.Transcode.Workers > maxTranscodeWorkers {
		return fmt.Errorf("transcode.workers must be between 1 and %d", maxTranscodeWorkers)
	}
	if c.Transcode.TimeoutSeconds < 0 {
		return errors.New("transcode.timeout_seconds must not be negative (0 disables the timeout)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (expected console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
