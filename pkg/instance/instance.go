package instance

import (
	"os"

	"github.com/zepzep/zepzep-backend/pkg/env"
)

// GetID identifies this process in logs and lock ownership. It prefers
// ZEPZEP_INSTANCE_ID, then the platform dyno name, then the hostname.
func GetID() string {
	if id := env.Get("ZEPZEP_INSTANCE_ID", ""); id != "" {
		return id
	}
	if id := env.Get("DYNO", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
