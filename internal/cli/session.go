package cli

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// newSessionDir creates a fresh directory for the index databases of one
// server run. It is grouped by project under the user cache dir, and the
// returned cleanup removes it again.
func newSessionDir(projectRoot string) (string, func(), error) {
	cacheDir, err := getUserCacheDir()
	if err != nil {
		return "", nil, err
	}

	projectDir := filepath.Join(cacheDir, "function-map", projectSlug(projectRoot))
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dir, err := os.MkdirTemp(projectDir, "session-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("cli: failed to remove session directory")
		}
	}
	return dir, cleanup, nil
}

func projectSlug(projectRoot string) string {
	slug := strings.ReplaceAll(projectRoot, "/", "_")
	slug = strings.ReplaceAll(slug, ":", "_")
	slug = strings.ReplaceAll(slug, "\\", "_")
	return slug
}

func getUserCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		usr, err := user.Current()
		if err != nil {
			return "", fmt.Errorf("failed to get current user: %w", err)
		}
		return filepath.Join(usr.HomeDir, ".cache"), nil
	}
	return cacheDir, nil
}
