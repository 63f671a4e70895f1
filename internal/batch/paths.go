package batch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"eventbatch/internal/timeline"
)

// MaxPathLength is the longest output path the host accepts.
const MaxPathLength = 260

// The character sets mirror the most restrictive common filesystem so that
// generated command files stay portable.
const (
	invalidPathChars = "\"<>|"
	invalidNameChars = invalidPathChars + ":*?\\/"
)

// FixFileName replaces characters that cannot appear in a file name with "-".
func FixFileName(name string) string {
	name = norm.NFC.String(name)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(invalidNameChars, r) {
			return '-'
		}
		return r
	}, name)
}

// ValidateFilePath rejects paths the host cannot write.
func ValidateFilePath(path string) error {
	if len(path) > MaxPathLength {
		return validationf(path, "file name too long")
	}
	for _, r := range path {
		if r < 0x20 || strings.ContainsRune(invalidPathChars, r) {
			return validationf(path, "invalid file name")
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// splitBase separates an output base such as "/renders/Show_" into its
// directory and file-name prefix.
func splitBase(base string) (dir, prefix string) {
	return filepath.Dir(base), filepath.Base(base)
}

// eventOutputPath is <dir>/<prefix><number><ext>.
func eventOutputPath(base, number string, item timeline.RenderItem) string {
	dir, prefix := splitBase(base)
	if strings.HasSuffix(base, string(filepath.Separator)) {
		prefix = ""
	}
	return filepath.Join(dir, FixFileName(prefix)+number+item.Extension)
}

// itemOutputStem is <dir>/<prefix><renderer>_<template>, the shared stem for
// region, selection, and project renders.
func itemOutputStem(base string, item timeline.RenderItem) string {
	dir, prefix := splitBase(base)
	if strings.HasSuffix(base, string(filepath.Separator)) {
		prefix = ""
	}
	return filepath.Join(dir, FixFileName(prefix)+FixFileName(item.Renderer)+"_"+FixFileName(item.Template))
}

// CommandFileName builds the per-template command file name, e.g.
// "BatchEncodeEvents_[ProRes HQ].bat".
func CommandFileName(commandFile string, item timeline.RenderItem) string {
	base := filepath.Base(strings.TrimSpace(commandFile))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "BatchEncodeEvents.bat"
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return FixFileName(stem + "_[" + item.Template + "]" + ext)
}

// TargetTrackName labels the output track created for a source track.
func TargetTrackName(source string, item timeline.RenderItem) string {
	return source + " [ " + item.Template + " ]"
}
