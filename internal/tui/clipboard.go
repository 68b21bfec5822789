package tui

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

const clipboardTimeout = 5 * time.Second

// clipboardCommands are tried in order. Wayland tools come first only in a
// Wayland session since wl-copy is often installed alongside X11 tools.
var (
	waylandClipboard = [][]string{{"wl-copy"}}
	x11Clipboard     = [][]string{
		{"xclip", "-selection", "clipboard"},
		{"xsel", "--clipboard", "--input"},
	}
)

var errNoClipboard = errors.New("no clipboard command available")

// copyText writes text to the system clipboard.
func copyText(text string) error {
	argv := clipboardCommand(os.Getenv("WAYLAND_DISPLAY") != "", exec.LookPath)
	if argv == nil {
		return errNoClipboard
	}

	ctx, cancel := context.WithTimeout(context.Background(), clipboardTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// clipboardCommand returns the first installed clipboard command.
func clipboardCommand(wayland bool, lookPath func(string) (string, error)) []string {
	candidates := x11Clipboard
	if wayland {
		candidates = append(waylandClipboard, x11Clipboard...)
	}
	for _, argv := range candidates {
		if _, err := lookPath(argv[0]); err == nil {
			return argv
		}
	}
	return nil
}
