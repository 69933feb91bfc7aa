package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mcsounds/internal/config"
	"mcsounds/internal/testsupport"
)

const stubEncoders = `Encoders:
 ------
 A....D flac                 FLAC (Free Lossless Audio Codec)
 A....D libmp3lame           libmp3lame MP3 (MPEG audio layer 3) (codec mp3)
 A..... pcm_s16le            PCM signed 16-bit little-endian
`

// stubFFmpeg lists the encoders above and copies the -i input to the last
// argument. Inputs whose path contains "broken" fail.
const stubFFmpeg = `#!/bin/sh
for arg in "$@"; do
  if [ "$arg" = "-encoders" ]; then
    cat <<'LIST'
` + stubEncoders + `LIST
    exit 0
  fi
done
in=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-i" ]; then in="$arg"; fi
  prev="$arg"
  out="$arg"
done
case "$in" in
  *broken*) echo "Invalid data found when processing input" >&2; exit 1;;
esac
cp "$in" "$out"
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	opts = append([]testsupport.ConfigOption{
		testsupport.WithStubScripts(map[string]string{
			"ffmpeg":  stubFFmpeg,
			"ffprobe": "#!/bin/sh\nexit 0\n",
		}),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("MCSOUNDS_MINECRAFT_DIR", "")
	t.Setenv("MCSOUNDS_OUTPUT_DIR", "")
	t.Setenv("MCSOUNDS_FFMPEG", "")
	t.Setenv("MCSOUNDS_FFPROBE", "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

// writeInstall creates the default two-sound Minecraft install of the env.
func (e *cliTestEnv) writeInstall(t *testing.T) {
	t.Helper()
	testsupport.WriteInstall(t, e.cfg.Paths.MinecraftDir, "12",
		testsupport.Sound{Name: "minecraft/sounds/music/game/music1.ogg", Hash: "aa11", Size: 2048},
		testsupport.Sound{Name: "minecraft/sounds/mob/cat/meow1.ogg", Hash: "bb22", Size: 512},
	)
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be absent, stat err=%v", path, err)
	}
}
