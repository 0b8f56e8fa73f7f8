// based on:
// https://en.wikipedia.org/wiki/HSL_and_HSV

package hsl

// HSL is a color in the hue, saturation, lightness space. H is in degrees,
// S and L are in [0, 1].
type HSL struct {
	H float64 // hue, degrees
	S float64 // saturation
	L float64 // lightness
}

// third and twoThirds keep the single precision rounding of the palette
// tooling this model has to agree with.
var (
	third     = float64(float32(1) / 3)
	twoThirds = float64(float32(2) / 3)
)

// RGB8 converts to 8-bit channels, truncating rather than rounding.
func (hc HSL) RGB8() (uint8, uint8, uint8) {
	if hc.S == 0 {
		v := uint8(hc.L * 255)
		return v, v, v
	}

	var v2 float64
	if hc.L < 0.5 {
		v2 = hc.L * (1 + hc.S)
	} else {
		v2 = (hc.L + hc.S) - (hc.L * hc.S)
	}
	v1 := 2*hc.L - v2
	h := hc.H / 360

	return uint8(255 * hueToChannel(v1, v2, h+third)),
		uint8(255 * hueToChannel(v1, v2, h)),
		uint8(255 * hueToChannel(v1, v2, h-third))
}

func hueToChannel(v1, v2, vh float64) float64 {
	if vh < 0 {
		vh += 1
	}
	if vh > 1 {
		vh -= 1
	}

	switch {
	case 6*vh < 1:
		return v1 + (v2-v1)*6*vh
	case 2*vh < 1:
		return v2
	case 3*vh < 2:
		return v1 + (v2-v1)*(twoThirds-vh)*6
	}
	return v1
}

// Hue returns the hue of an 8-bit RGB color in degrees, [0, 360). Grays
// have hue 0.
func Hue(r, g, b uint8) float64 {
	if r == g && g == b {
		return 0
	}

	hi := max(int(r), int(g), int(b))
	lo := min(int(r), int(g), int(b))
	delta := float64(hi - lo)

	var h float64
	switch hi {
	case int(r):
		h = float64(int(g)-int(b)) / delta
	case int(g):
		h = float64(int(b)-int(r))/delta + 2
	default:
		h = float64(int(r)-int(g))/delta + 4
	}

	h *= 60
	if h < 0 {
		h += 360
	}
	return h
}

// Pure returns the fully saturated, half lightness color of hue h.
func Pure(h float64) HSL {
	return HSL{H: h, S: 1, L: 0.5}
}
