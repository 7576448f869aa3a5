package config

import (
	"fmt"
	"os"
)

func Template() string {
	return loaderTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(loaderTemplate), 0o600)
}

const loaderTemplate = `listen_addr = ":4299"
recv_timeout = "65.536ms"
chunk_size = 4096
mode = "busy"
fallback_path = "/AUTOEXEC.DOL"
status_addr = "127.0.0.1:9429"
cors_origins = ["http://localhost:3000"]
staging_dir = "/tmp/geckoload"
runner = "dolphin-emu --batch --exec"
max_deflate_bytes = 33554432
max_inflate_bytes = 25165824
max_args_bytes = 65536
elevate_priority = true
`
