package config

import (
	"os"
	"strings"
)

// LegacyProbeOnlyDuplicates restores the spreadsheet-era behavior where
// submitBatch trusted the client's checkDuplicates probe and performed no
// duplicate check of its own. That left a probe-to-insert race; the default
// is the atomic in-lock re-check.
//
// Set via env:
// - LEGACY_PROBE_ONLY_DUPLICATES=true
func LegacyProbeOnlyDuplicates() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("LEGACY_PROBE_ONLY_DUPLICATES")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
