package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnvFiles is best effort: missing or unreadable files are ignored.
func loadEnvFiles(dir string) {
	files := envFileCandidates(dir)
	if len(files) == 0 {
		return
	}
	_ = godotenv.Load(files...)
}

// envFileCandidates lists existing env files in dir, highest priority first.
// godotenv keeps the first value it sees for a key.
func envFileCandidates(dir string) []string {
	var files []string
	for _, name := range []string{".env.local", ".env"} {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, candidate)
	}
	return files
}
