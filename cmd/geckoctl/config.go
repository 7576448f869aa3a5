package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/geckoload/internal/config"
	"github.com/danmuck/geckoload/internal/loader"
)

// loadServiceConfig overlays the keys present in path onto the defaults.
func loadServiceConfig(path string) (loader.ServiceConfig, error) {
	cfg := loader.DefaultServiceConfig()

	var raw config.LoaderConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return loader.ServiceConfig{}, fmt.Errorf("load geckoctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return loader.ServiceConfig{}, fmt.Errorf("unknown config keys: %v", undecoded)
	}
	if err := config.ValidateLoaderConfig(raw); err != nil {
		return loader.ServiceConfig{}, err
	}

	if meta.IsDefined("listen_addr") {
		if v := strings.TrimSpace(raw.ListenAddr); v != "" {
			cfg.ListenAddr = v
		}
	}

	if meta.IsDefined("recv_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RecvTimeout))
		if err != nil {
			return loader.ServiceConfig{}, fmt.Errorf("parse recv_timeout: %w", err)
		}
		cfg.Session.RecvTimeout = d
	}

	if meta.IsDefined("chunk_size") && raw.ChunkSize > 0 {
		cfg.Session.ChunkSize = raw.ChunkSize
	}

	if meta.IsDefined("mode") {
		if v := strings.TrimSpace(raw.Mode); v != "" {
			cfg.Mode = loader.Mode(v)
		}
	}

	if meta.IsDefined("fallback_path") {
		if v := strings.TrimSpace(raw.FallbackPath); v != "" {
			cfg.FallbackPath = v
		}
	}

	if meta.IsDefined("status_addr") {
		cfg.StatusAddr = strings.TrimSpace(raw.StatusAddr)
	}

	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeOrigins(raw.CorsOrigins)
	}

	if meta.IsDefined("staging_dir") {
		if v := strings.TrimSpace(raw.StagingDir); v != "" {
			cfg.StagingDir = v
		}
	}

	if meta.IsDefined("runner") {
		cfg.Runner = strings.TrimSpace(raw.Runner)
	}

	if meta.IsDefined("max_deflate_bytes") && raw.MaxDeflateBytes != nil {
		cfg.Session.Limits.MaxDeflateBytes = uint32(*raw.MaxDeflateBytes)
	}
	if meta.IsDefined("max_inflate_bytes") && raw.MaxInflateBytes != nil {
		cfg.Session.Limits.MaxInflateBytes = uint32(*raw.MaxInflateBytes)
	}
	if meta.IsDefined("max_args_bytes") && raw.MaxArgsBytes != nil {
		cfg.Session.Limits.MaxArgsBytes = uint32(*raw.MaxArgsBytes)
	}

	if meta.IsDefined("elevate_priority") && raw.ElevatePriority != nil {
		cfg.ElevatePriority = *raw.ElevatePriority
	}

	return cfg, cfg.Validate()
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
