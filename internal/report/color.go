package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// fallbackRGB is used when a configured base colour cannot be parsed.
var fallbackRGB = [3]int{107, 114, 128}

func parseHex(s string) ([3]int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return [3]int{}, false
	}
	var out [3]int
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return [3]int{}, false
		}
		out[i] = int(v)
	}
	return out, true
}

// shade scales each channel of base by 0.7 + i*0.1, clamped to [0,255].
// The same (base, i) always yields the same colour.
func shade(base string, i int) string {
	rgb, ok := parseHex(base)
	if !ok {
		rgb = fallbackRGB
	}
	f := 0.7 + float64(i)*0.1
	for c := range rgb {
		rgb[c] = clampChannel(math.Round(float64(rgb[c]) * f))
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}

func clampChannel(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return int(v)
}
