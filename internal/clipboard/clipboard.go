// Package clipboard copies release MBIDs to the system clipboard so
// they can be pasted straight into tagging tools after an import.
package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Copy places text on the system clipboard.
// On headless machines with no clipboard backend this fails; callers
// treat it as a convenience and log rather than abort.
func Copy(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard available on this platform")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}
