package ircf

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

// mircPalette is the classic 16-entry mIRC color palette used by the
// legacy \x03 color code.
var mircPalette = [16]RGB{
	{0xFF, 0xFF, 0xFF}, // 0 white
	{0x00, 0x00, 0x00}, // 1 black
	{0x00, 0x00, 0x7F}, // 2 blue
	{0x00, 0x93, 0x00}, // 3 green
	{0xFF, 0x00, 0x00}, // 4 red
	{0x7F, 0x00, 0x00}, // 5 brown
	{0x9C, 0x00, 0x9C}, // 6 purple
	{0xFC, 0x7F, 0x00}, // 7 orange
	{0xFF, 0xFF, 0x00}, // 8 yellow
	{0x00, 0xFC, 0x00}, // 9 light green
	{0x00, 0x93, 0x93}, // 10 cyan
	{0x00, 0xFF, 0xFF}, // 11 light cyan
	{0x00, 0x00, 0xFC}, // 12 light blue
	{0xFF, 0x00, 0xFF}, // 13 pink
	{0x7F, 0x7F, 0x7F}, // 14 grey
	{0xD2, 0xD2, 0xD2}, // 15 light grey
}

// ansiPalette holds the 8 normal and 8 bright colors addressed by SGR
// 30-37/90-97 (and the first 16 entries of the 256-color palette).
var ansiPalette = [16]RGB{
	{0x00, 0x00, 0x00}, // black
	{0x80, 0x00, 0x00}, // red
	{0x00, 0x80, 0x00}, // green
	{0x80, 0x80, 0x00}, // yellow
	{0x00, 0x00, 0x80}, // blue
	{0x80, 0x00, 0x80}, // magenta
	{0x00, 0x80, 0x80}, // cyan
	{0xC0, 0xC0, 0xC0}, // white
	{0x80, 0x80, 0x80}, // bright black
	{0xFF, 0x00, 0x00}, // bright red
	{0x00, 0xFF, 0x00}, // bright green
	{0xFF, 0xFF, 0x00}, // bright yellow
	{0x00, 0x00, 0xFF}, // bright blue
	{0xFF, 0x00, 0xFF}, // bright magenta
	{0x00, 0xFF, 0xFF}, // bright cyan
	{0xFF, 0xFF, 0xFF}, // bright white
}

// cubeSteps are the per-axis intensities of the 6x6x6 color cube in the
// 256-color palette.
var cubeSteps = [6]uint8{0, 95, 135, 175, 215, 255}

// MircColor maps a legacy color index through the 16-entry mIRC palette.
// Indices beyond 15 fold back into the palette.
func MircColor(idx int) RGB {
	if idx < 0 {
		idx = 0
	}
	return mircPalette[idx%16]
}

// AnsiColor returns the SGR base palette entry for 0-15.
func AnsiColor(idx int) RGB {
	if idx < 0 || idx > 15 {
		return ansiPalette[0]
	}
	return ansiPalette[idx]
}

// Ansi256 resolves an index of the 256-color palette: 0-15 base colors,
// 16-231 the 6x6x6 cube, 232-255 the 24-step grayscale ramp.
func Ansi256(n int) RGB {
	switch {
	case n < 0:
		n = 0
	case n > 255:
		n = 255
	}

	if n < 16 {
		return ansiPalette[n]
	}
	if n < 232 {
		n -= 16
		return RGB{
			R: cubeSteps[n/36],
			G: cubeSteps[(n/6)%6],
			B: cubeSteps[n%6],
		}
	}
	v := uint8(8 + 10*(n-232))
	return RGB{v, v, v}
}

func clampChannel(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
