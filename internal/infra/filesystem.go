package infra

import (
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GetWorkDir resolves (and creates) a subdirectory under the bot's dot
// directory.
func GetWorkDir(path ...string) string {
	parts := []string{
		"~",
		".chatwarden",
	}
	parts = append(parts, path...)

	workDir := filepath.Join(parts...)
	if strings.HasPrefix(workDir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalln(err)
		}
		workDir = filepath.Join(home, strings.TrimPrefix(workDir, "~"))
	}
	if err := os.MkdirAll(workDir, os.ModePerm); err != nil {
		log.Fatalln(err)
	}
	return workDir
}
