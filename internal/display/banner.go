package display

import (
	"fmt"
	"os"

	"github.com/kerasty/smart-encoder/internal/term"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner() {
	if term.Enabled() {
		fmt.Fprint(os.Stdout, term.Magenta)
	}
	fmt.Fprint(os.Stdout, ` ____                       _     _____                    _
/ ___| _ __ ___   __ _ _ __| |_  | ____|_ __   ___ ___   __| | ___ _ __
\___ \| '_ ` + "`" + ` _ \ / _` + "`" + ` | '__| __| |  _| | '_ \ / __/ _ \ / _` + "`" + ` |/ _ \ '__|
 ___) | | | | | | (_| | |  | |_  | |___| | | | (_| (_) | (_| |  __/ |
|____/|_| |_| |_|\__,_|_|   \__| |_____|_| |_|\___\___/ \__,_|\___|_|
`)
	if term.Enabled() {
		fmt.Fprintln(os.Stdout, term.NC)
	}
}
