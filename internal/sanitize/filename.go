package sanitize

import (
	"path/filepath"
	"strings"
)

var filenameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", "~", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", "\x00", "_",
	"\n", "_", "\r", "_", "\t", "_",
	"..", "_",
)

var reservedNames = map[string]struct{}{
	"":    {},
	".":   {},
	"..":  {},
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
}

const maxFilenameLength = 255

// Filename replaces path separators, traversal sequences, and other
// dangerous characters with underscores, strips control bytes,
// truncates to 255 bytes while preserving a short extension, and
// substitutes "unnamed_file" for any of the reserved names.
func Filename(s string) string {
	bumpTotal()
	modified := false

	cleaned := stripControlBytes(s)
	if cleaned != s {
		modified = true
	}

	if _, reserved := reservedNames[cleaned]; reserved {
		if cleaned != "unnamed_file" {
			modified = true
		}
		return finish("unnamed_file", modified)
	}

	replaced := filenameReplacer.Replace(cleaned)
	// The replacer consumes dot pairs and only ever emits "_", so no
	// ".." survives the pass above; this loop is a guard that keeps the
	// invariant if the replacer table changes.
	for strings.Contains(replaced, "..") {
		replaced = strings.ReplaceAll(replaced, "..", "_")
		modified = true
	}
	if replaced != cleaned {
		modified = true
	}

	if len(replaced) > maxFilenameLength {
		replaced = truncatePreservingExt(replaced, maxFilenameLength)
		modified = true
	}

	if _, reserved := reservedNames[replaced]; reserved {
		replaced = "unnamed_file"
		modified = true
	}

	return finish(replaced, modified)
}

func finish(name string, modified bool) string {
	if modified {
		bumpModified()
	}
	return name
}

func truncatePreservingExt(name string, maxLen int) string {
	ext := filepath.Ext(name)
	if len(ext) > 16 {
		// Not a plausible extension; treat the whole thing as a stem.
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)
	keep := maxLen - len(ext)
	if keep < 1 {
		keep = 1
		ext = ""
	}
	if len(stem) > keep {
		stem = stem[:keep]
	}
	return stem + ext
}
