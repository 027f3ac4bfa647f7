package outwriter

import (
	"os"

	"github.com/huangsam/ehminer/internal/contract"
	"golang.org/x/term"
)

// GetMaxTableLocationWidth calculates the maximum width for definition locations in table
// output based on terminal width and the number of breakdown columns.
func GetMaxTableLocationWidth(cfg *contract.Config, breakdownColumns int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// ID + Call + Out + Multi + Domains + Projects + Total with borders/padding
	baseWidth := 60

	// Every domain and project count gets a narrow column
	baseWidth += 8 * breakdownColumns

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
