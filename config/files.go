package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/c360/flowbuilder/errors"
)

// Limits on what a layer file or environment override may contain
const (
	maxLayerBytes = 1 << 20
	maxPathBytes  = 4096
	maxEnvBytes   = 4096
)

var layerExtensions = []string{".json", ".yaml", ".yml"}

// readLayer returns the contents of a configuration layer after checking its
// name and size. Layers are plain files named *.json, *.yaml or *.yml with no
// parent directory components.
func readLayer(path string) ([]byte, error) {
	problem := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", errors.ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch {
	case path == "":
		return nil, problem("empty config path")
	case len(path) > maxPathBytes:
		return nil, problem("config path longer than %d bytes", maxPathBytes)
	case slices.Contains(strings.Split(filepath.ToSlash(path), "/"), ".."):
		return nil, problem("path traversal not allowed: %s", path)
	case !slices.Contains(layerExtensions, strings.ToLower(filepath.Ext(path))):
		return nil, problem("only JSON or YAML config files allowed: %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, problem("%s is not a regular file", path)
	}
	if info.Size() > maxLayerBytes {
		return nil, problem("%s is %d bytes, limit is %d", path, info.Size(), maxLayerBytes)
	}
	return os.ReadFile(path)
}

// checkEnvValue rejects override values no shell would produce by accident
func checkEnvValue(name, value string) error {
	switch {
	case len(value) > maxEnvBytes:
		return fmt.Errorf("%s longer than %d bytes", name, maxEnvBytes)
	case strings.ContainsRune(value, 0):
		return fmt.Errorf("null byte in %s", name)
	case !utf8.ValidString(value):
		return fmt.Errorf("%s is not valid UTF-8", name)
	}
	return nil
}
