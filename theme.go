package arbor

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Theme holds the colors a viewer paints with. The viewer only consumes these
// values; it never derives colors on its own.
type Theme struct {
	Name                string `yaml:"name"`
	Background          Color  `yaml:"background"`
	Foreground          Color  `yaml:"foreground"`
	SelectionBackground Color  `yaml:"selectionBackground"`
	SelectionForeground Color  `yaml:"selectionForeground"`
	Expander            Color  `yaml:"expander"`
	Placeholder         Color  `yaml:"placeholder"`
}

// ThemeProvider supplies the active theme. Hosts that switch themes at runtime
// return a different value; the viewer reads it once per paint.
type ThemeProvider interface {
	Theme() *Theme
}

// StaticTheme is a ThemeProvider that always returns the same theme.
type StaticTheme struct {
	T *Theme
}

// Theme implements ThemeProvider.
func (s StaticTheme) Theme() *Theme { return s.T }

// DefaultTheme returns the built-in dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		Name:                "dark",
		Background:          Color{0.137, 0.118, 0.176, 1},
		Foreground:          Color{0.86, 0.86, 0.86, 1},
		SelectionBackground: Color{0.2, 0.4, 0.8, 1},
		SelectionForeground: Color{1, 1, 1, 1},
		Expander:            Color{0.6, 0.6, 0.6, 1},
		Placeholder:         Color{0.35, 0.35, 0.4, 1},
	}
}

// LoadTheme parses a YAML theme. Missing colors keep the DefaultTheme values.
//
//	name: light
//	background: "#ffffff"
//	foreground: "#202020"
//	selectionBackground: "#3875d7"
func LoadTheme(data []byte) (*Theme, error) {
	t := DefaultTheme()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse theme: %w", err)
	}
	return t, nil
}

// LoadThemeFile reads and parses a YAML theme file.
func LoadThemeFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme %s: %w", path, err)
	}
	return LoadTheme(data)
}

// UnmarshalYAML accepts "#rgb", "#rrggbb" and "#rrggbbaa" strings.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseHexColor(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*c = parsed
	return nil
}

// MarshalYAML writes the color as "#rrggbbaa".
func (c Color) MarshalYAML() (any, error) {
	n := c.NRGBA()
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A), nil
}

// ParseHexColor parses a CSS-style hex color.
func ParseHexColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}
