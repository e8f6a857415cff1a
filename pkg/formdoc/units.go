package formdoc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Length is a distance in twips (1/1440 inch), the native unit of
// WordprocessingML page and table geometry.
type Length int

const (
	Twip       Length = 1
	Point      Length = 20
	Inch       Length = 1440
	twipsPerCm        = 1440 / 2.54
)

// Centimeters converts a length in centimetres to twips.
func Centimeters(cm float64) Length {
	return Length(math.Round(cm * twipsPerCm))
}

// Points converts a length in points to twips.
func Points(pt float64) Length {
	return Length(math.Round(pt * float64(Point)))
}

// Letter is the default page used by word processors in the en-US locale.
var Letter = PageSetup{
	Width:  Inch * 17 / 2,
	Height: Inch * 11,
	Top:    Inch,
	Bottom: Inch,
	Left:   Inch,
	Right:  Inch,
}

// ParseLength parses a length such as "1.5cm", "10mm", "1in", "12pt" or a bare
// number of twips.
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, fmt.Errorf("empty length")
	}

	units := []struct {
		suffix string
		twips  float64
	}{
		{"cm", twipsPerCm},
		{"mm", twipsPerCm / 10},
		{"in", float64(Inch)},
		{"pt", float64(Point)},
		{"tw", 1},
	}
	for _, u := range units {
		if num, ok := strings.CutSuffix(s, u.suffix); ok {
			v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid length %q: %w", s, err)
			}
			if v < 0 {
				return 0, fmt.Errorf("invalid length %q: negative", s)
			}
			return Length(math.Round(v * u.twips)), nil
		}
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q: want a number with cm, mm, in, pt or tw suffix", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid length %q: negative", s)
	}
	return Length(v), nil
}

// Centimeters returns the length in centimetres.
func (l Length) Centimeters() float64 {
	return float64(l) / twipsPerCm
}

// String formats the length in centimetres with two decimals.
func (l Length) String() string {
	return strconv.FormatFloat(l.Centimeters(), 'f', 2, 64) + "cm"
}

// UnmarshalYAML accepts a string with a unit suffix or a bare integer (twips).
func (l *Length) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: length must be a scalar", node.Line)
	}
	v, err := ParseLength(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*l = v
	return nil
}
