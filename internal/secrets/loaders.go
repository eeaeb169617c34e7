package secrets

import (
	"fmt"

	"github.com/joho/godotenv"
)

// FileLoader returns a Loader that parses a KEY=value file. The file is
// read on every load, so rewriting it and reloading rotates the secrets.
func FileLoader(path string) Loader {
	return func() (map[string]string, error) {
		vals, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return vals, nil
	}
}
