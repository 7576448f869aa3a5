package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/geckoload/internal/protocol/frame"
)

// LoaderConfig is the on-disk form of the serve command's settings. Empty
// fields mean "use the built-in default".
type LoaderConfig struct {
	ListenAddr      string   `toml:"listen_addr"`
	RecvTimeout     string   `toml:"recv_timeout"`
	ChunkSize       int      `toml:"chunk_size"`
	Mode            string   `toml:"mode"`
	FallbackPath    string   `toml:"fallback_path"`
	StatusAddr      string   `toml:"status_addr"`
	CorsOrigins     []string `toml:"cors_origins"`
	StagingDir      string   `toml:"staging_dir"`
	Runner          string   `toml:"runner"`
	MaxDeflateBytes *int64   `toml:"max_deflate_bytes"`
	MaxInflateBytes *int64   `toml:"max_inflate_bytes"`
	MaxArgsBytes    *int64   `toml:"max_args_bytes"`
	ElevatePriority *bool    `toml:"elevate_priority"`
}

const maxChunkSize = 4096

func LoadLoaderConfig(path string) (LoaderConfig, error) {
	var cfg LoaderConfig
	if err := loadToml(path, &cfg); err != nil {
		return LoaderConfig{}, err
	}
	if err := ValidateLoaderConfig(cfg); err != nil {
		return LoaderConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateLoaderConfig(cfg LoaderConfig) error {
	if v := strings.TrimSpace(cfg.RecvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("recv_timeout invalid: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("recv_timeout must be positive")
		}
	}
	if cfg.ChunkSize < 0 || cfg.ChunkSize > maxChunkSize {
		return fmt.Errorf("chunk_size must be in 0..%d", maxChunkSize)
	}
	switch strings.TrimSpace(cfg.Mode) {
	case "", "busy", "background":
	default:
		return fmt.Errorf("mode must be busy or background, got %q", cfg.Mode)
	}
	for name, v := range map[string]*int64{
		"max_deflate_bytes": cfg.MaxDeflateBytes,
		"max_inflate_bytes": cfg.MaxInflateBytes,
		"max_args_bytes":    cfg.MaxArgsBytes,
	} {
		if v != nil && (*v < 1 || *v > frame.MaxLimit) {
			return fmt.Errorf("%s must be in 1..%d, got %d", name, frame.MaxLimit, *v)
		}
	}
	if strings.TrimSpace(cfg.StatusAddr) == "" && len(cfg.CorsOrigins) > 0 {
		return fmt.Errorf("cors_origins set without status_addr")
	}
	return nil
}
