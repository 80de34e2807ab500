package report

import (
	"fmt"
	"os"
)

// Write persists the rendered report at path, truncating any prior content.
// Filesystem errors propagate to the caller; a report that cannot be saved
// fails the whole run.
func Write(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}
