package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
)

var getRuntime = func() string { return runtime.GOOS }

// startCommand is swapped in tests so no browser is launched.
var startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(target string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", target)
	case "linux":
		cmd = exec.Command("xdg-open", target)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", target)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// MapURL builds an OpenStreetMap link centered on the given coordinates.
func MapURL(lat, lng float64) string {
	q := url.Values{}
	q.Set("mlat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("mlon", strconv.FormatFloat(lng, 'f', 6, 64))
	return "https://www.openstreetmap.org/?" + q.Encode() + "#map=17/" +
		strconv.FormatFloat(lat, 'f', 6, 64) + "/" + strconv.FormatFloat(lng, 'f', 6, 64)
}
