package backup

import "time"

// ImportMode determines how to handle existing data.
type ImportMode string

const (
	// ImportModeMerge unions incoming data with the catalog. Local items win
	// on ID collisions and incoming categories win on key collisions.
	ImportModeMerge ImportMode = "merge"

	// ImportModeOverwrite wipes the catalog and loads the incoming data verbatim.
	ImportModeOverwrite ImportMode = "overwrite"
)

// Valid returns true if the import mode is recognized.
func (m ImportMode) Valid() bool {
	switch m {
	case ImportModeMerge, ImportModeOverwrite:
		return true
	default:
		return false
	}
}

// ImportResult contains the outcome of an import.
type ImportResult struct {
	ImportID string        `json:"import_id"`
	Mode     ImportMode    `json:"mode"`
	Imported EntityCounts  `json:"imported"`
	Skipped  EntityCounts  `json:"skipped"`
	Duration time.Duration `json:"duration"`
}
