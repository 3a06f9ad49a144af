package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Document is a file selected for extraction.
type Document struct {
	Path    string
	HashHex string
}

type FileResult struct {
	Path         string
	HashHex      string
	Deduplicated bool
	Err          string
}

type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// ScanDirectory walks root, keeps files with an allowed extension, skips hidden
// entries if requested and drops files whose content was already seen. It
// returns the documents to process in walk order, per-file results and stats.
func ScanDirectory(root string, skipHidden bool) ([]Document, []FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	var (
		docs    []Document
		results []FileResult
		stats   DirStats
	)
	seen := map[string]string{} // hash -> first path

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		hashHex, err := HashFile(path)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		if _, dup := seen[hashHex]; dup {
			results = append(results, FileResult{Path: path, HashHex: hashHex, Deduplicated: true})
			stats.Deduplicated++
			return nil
		}
		seen[hashHex] = path

		docs = append(docs, Document{Path: path, HashHex: hashHex})
		results = append(results, FileResult{Path: path, HashHex: hashHex})
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return docs, results, stats, fmt.Errorf("walk: %w", err)
	}
	return docs, results, stats, nil
}
