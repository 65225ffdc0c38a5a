package overlays

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/keagan/growcam/internal/config"
)

// Position is an ffmpeg expression pair, e.g. {"10", "h-th-10"}.
type Position struct {
	X string
	Y string
}

// Style controls how captions are drawn
type Style struct {
	FontFile  string
	FontSize  int
	FontColor string
	Position  Position
}

// StyleFromConfig builds a caption style from the overlay config
func StyleFromConfig(cfg config.OverlayConfig) Style {
	return Style{
		FontFile:  cfg.FontFile,
		FontSize:  cfg.FontSize,
		FontColor: cfg.FontColor,
		Position:  Position{X: cfg.X, Y: cfg.Y},
	}
}

// Caption is a fixed text burned into every frame of a clip
type Caption struct {
	Text  string
	Style Style
}

// Filter renders the caption as a drawtext filter
func (c Caption) Filter() string {
	opts := []string{
		"text=" + quote(c.Text),
		"expansion=none",
	}

	if c.Style.FontFile != "" {
		opts = append(opts, "fontfile="+quote(filterPath(c.Style.FontFile)))
	}

	size := c.Style.FontSize
	if size <= 0 {
		size = 24
	}
	opts = append(opts, fmt.Sprintf("fontsize=%d", size))

	color := c.Style.FontColor
	if color == "" {
		color = "white"
	}
	opts = append(opts, "fontcolor="+color)

	x, y := c.Style.Position.X, c.Style.Position.Y
	if x == "" {
		x = "10"
	}
	if y == "" {
		y = "h-th-10"
	}
	opts = append(opts, "x="+quote(x), "y="+quote(y))

	return "drawtext=" + strings.Join(opts, ":")
}

// quote wraps a drawtext option value so the filtergraph parser keeps it in
// one piece and the option parser sees escaped colons and backslashes.
func quote(s string) string {
	s = strings.ReplaceAll(s, "'", "’")
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ":", `\:`)
	return "'" + s + "'"
}

func filterPath(path string) string {
	if runtime.GOOS == "windows" {
		return strings.ReplaceAll(path, "\\", "/")
	}
	return path
}
