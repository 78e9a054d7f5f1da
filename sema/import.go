package sema

import (
	"os"
	"path/filepath"
	"strings"
)

// Loader supplies source text for a resolved script path. FileLoader is the
// production implementation; tests substitute an in-memory Loader so
// imports can be validated without touching the filesystem.
type Loader interface {
	Load(path string) (string, error)
}

// FileLoader reads `.pprs` files from disk via the standard library — no
// example repo in the corpus offers a virtual/embedded filesystem layer
// suited to this, and Papyrus's own persisted-state model is "none" (see
// SPEC_FULL.md), so there is nothing else for an import resolver to read
// from.
type FileLoader struct{}

func (FileLoader) Load(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// canonicalPath absolutizes an entry script path (as given on the command
// line), the key used for Program.EntryPath and the units/visiting caches.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// resolveImportPath turns the literal written after `import` into an
// absolute, canonical path and the default alias (the file stem). Per §4.2
// the literal carries no extension; `.pprs` is appended here unless the
// literal already ends in it.
func resolveImportPath(importerDir, literal string) (path, alias string) {
	rel := literal
	if !strings.HasSuffix(rel, ".pprs") {
		rel += ".pprs"
	}
	full := filepath.Join(importerDir, rel)
	abs, err := filepath.Abs(full)
	if err != nil {
		abs = full
	}
	stem := filepath.Base(literal)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	return abs, stem
}
