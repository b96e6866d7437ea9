// Package overlay appends user-supplied additional source files to a
// generated package. Files whose relative path matches a generated file
// are appended to it; new paths are created. A top-level tests directory
// in the overlay merges into the generated test directory instead of the
// package directory.
package overlay

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Apply walks srcDir and appends its content under outDir. pkgName is
// the generated package directory: overlay files outside tests/ land
// inside it, so a BlockchainAPIs.py overlay file extends the generated
// <pkg>/BlockchainAPIs.py class body.
//
// A missing srcDir is reported through warn and is not an error, so runs
// without additional code stay valid.
func Apply(srcDir, outDir, pkgName string, warn func(format string, args ...any)) error {
	info, err := os.Stat(srcDir)
	if os.IsNotExist(err) {
		if warn != nil {
			warn("additional path %q is not a folder, skipping", srcDir)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("overlay: stat %s: %w", srcDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("overlay: additional path %q is a file, expected a folder", srcDir)
	}

	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return fmt.Errorf("overlay: relativize %s: %w", path, err)
		}
		if rel == "." {
			return nil
		}
		dest := destPath(outDir, pkgName, rel)
		if d.IsDir() {
			if st, err := os.Stat(dest); err == nil && !st.IsDir() {
				return fmt.Errorf("overlay: destination %s is a file, expected a folder", dest)
			}
			return os.MkdirAll(dest, 0o755)
		}
		return appendFile(path, dest)
	})
}

// destPath maps an overlay-relative path into the output tree: tests/*
// merges into the generated tests directory, everything else lands in
// the package directory.
func destPath(outDir, pkgName, rel string) string {
	rel = filepath.ToSlash(rel)
	if rel == "tests" || strings.HasPrefix(rel, "tests/") {
		return filepath.Join(outDir, filepath.FromSlash(rel))
	}
	return filepath.Join(outDir, pkgName, filepath.FromSlash(rel))
}

// appendFile appends src's content to dest, creating dest (and its
// parents) when it does not exist yet.
func appendFile(src, dest string) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("overlay: read %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("overlay: create directory for %s: %w", dest, err)
	}
	out, err := os.OpenFile(dest, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("overlay: open %s: %w", dest, err)
	}
	defer out.Close()
	if _, err := out.Write(content); err != nil {
		return fmt.Errorf("overlay: append to %s: %w", dest, err)
	}
	return nil
}
