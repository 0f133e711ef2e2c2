package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// AssetsDir is an optional extra search root configured at startup.
var AssetsDir string

// ImageExtensions lists the still-image formats the loaders understand.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".tga", ".webp"}

func ResolveAssetPath(relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}

	if AssetsDir != "" {
		configured := filepath.Join(AssetsDir, relPath)
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	localPath := filepath.Join("assets", relPath)
	if _, err := os.Stat(localPath); err == nil {
		return localPath
	}

	if _, err := os.Stat(relPath); err == nil {
		return relPath
	}

	return localPath
}

// FindImageFile looks up name with or without one of ImageExtensions under the asset roots.
func FindImageFile(name string) string {
	if name == "" {
		return ""
	}

	if HasImageExtension(name) {
		if p := ResolveAssetPath(name); fileExists(p) {
			return p
		}
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, ext := range ImageExtensions {
		if p := ResolveAssetPath(base + ext); fileExists(p) {
			return p
		}
	}

	return ""
}

// ListImageFiles returns the image files of dir in lexical order.
func ListImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !HasImageExtension(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	return files, nil
}

func HasImageExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
