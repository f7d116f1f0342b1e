// Package ircf interprets inline text formatting controls found in IRC
// traffic. Two dialects appear in the wild and both are handled in a single
// pass: ANSI SGR escape sequences and the legacy single-byte mIRC codes
// described at https://modern.ircdocs.horse/formatting.html.
package ircf

import "strings"

// The legacy single-byte control characters.
const (
	charBold          = 0x02
	charColor         = 0x03
	charReset         = 0x0F
	charMonospace     = 0x11
	charReverseColor  = 0x16
	charItalics       = 0x1D
	charStrikethrough = 0x1E
	charUnderline     = 0x1F
	charEscape        = 0x1B
)

// Parse walks text once and converts it into an ordered, gapless sequence
// of styled spans. Every pending literal run is flushed with the style in
// effect before a control code is applied; a trailing run is flushed at end
// of input. Unrecognized controls are consumed without effect; a malformed
// ANSI escape is kept as literal text.
func Parse(text string) []Span {
	var (
		spans []Span
		st    style
		start = 0
	)

	flush := func(end int) {
		if end > start {
			spans = append(spans, st.span(text[start:end]))
		}
	}

	i := 0
	for i < len(text) {
		c := text[i]
		switch c {
		case charBold:
			flush(i)
			st.bold = !st.bold
			i++

		case charUnderline:
			flush(i)
			st.underline = !st.underline
			i++

		case charReverseColor:
			flush(i)
			st.reverse = !st.reverse
			i++

		case charReset:
			flush(i)
			st.reset()
			i++

		case charItalics, charStrikethrough, charMonospace:
			// Recognized but not part of the span model.
			flush(i)
			i++

		case charColor:
			flush(i)
			i = applyMircColor(&st, text, i)

		case charEscape:
			next, code, sgr, ok := scanAnsi(text, i)
			if !ok {
				// Unterminated escape: the rest is literal text.
				i = len(text)
				continue
			}
			flush(i)
			if sgr {
				applySGR(&st, code)
			}
			i = next

		default:
			i++
			continue
		}
		start = i
	}

	flush(len(text))
	return spans
}

// StripCodes removes all recognized control codes from text.
func StripCodes(text string) string {
	var b strings.Builder
	for _, span := range Parse(text) {
		b.WriteString(span.Text)
	}
	return b.String()
}

// applyMircColor consumes a \x03 color code starting at i and returns the
// index of the first byte after it. A bare \x03 clears both colors; digits
// followed by a comma with no further digits clear only the background.
func applyMircColor(st *style, text string, i int) int {
	i++ // the \x03 itself

	fg, n := scanColorDigits(text, i)
	if n == 0 {
		st.fg = nil
		st.bg = nil
		return i
	}
	i += n
	c := MircColor(fg)
	st.fg = &c

	if i < len(text) && text[i] == ',' {
		i++
		bg, n := scanColorDigits(text, i)
		if n == 0 {
			st.bg = nil
			return i
		}
		i += n
		c := MircColor(bg)
		st.bg = &c
	}
	return i
}

// scanColorDigits reads up to two decimal digits at text[i:] and returns
// the value and the number of bytes consumed.
func scanColorDigits(text string, i int) (val, n int) {
	for n < 2 && i+n < len(text) {
		c := text[i+n]
		if c < '0' || c > '9' {
			break
		}
		val = val*10 + int(c-'0')
		n++
	}
	return val, n
}

// scanAnsi scans an escape sequence starting at the ESC byte at i. It
// returns the index after the sequence; sgr is true with the parameter
// string when the final byte is 'm'. Other final bytes are consumed with
// sgr false so the caller leaves style state alone. ok is false when no
// final byte exists before end of input.
func scanAnsi(text string, i int) (next int, code string, sgr, ok bool) {
	j := i + 1
	if j >= len(text) || text[j] != '[' {
		return 0, "", false, false
	}
	j++
	paramStart := j
	for j < len(text) {
		c := text[j]
		if c >= 0x40 && c <= 0x7E {
			if c == 'm' {
				return j + 1, text[paramStart:j], true, true
			}
			// Some other final byte: consume and ignore.
			return j + 1, "", false, true
		}
		j++
	}
	return 0, "", false, false
}

// applySGR applies a ";"-separated SGR parameter list to the style.
// Unknown sub-codes are ignored.
func applySGR(st *style, params string) {
	codes := splitSGR(params)
	for k := 0; k < len(codes); k++ {
		switch c := codes[k]; {
		case c == 0:
			st.reset()
		case c == 1:
			st.bold = true
		case c == 22:
			st.bold = false
		case c == 4:
			st.underline = true
		case c == 24:
			st.underline = false
		case c == 7:
			st.reverse = true
		case c == 27:
			st.reverse = false
		case c == 39:
			st.fg = nil
		case c == 49:
			st.bg = nil
		case c >= 30 && c <= 37:
			v := AnsiColor(c - 30)
			st.fg = &v
		case c >= 90 && c <= 97:
			v := AnsiColor(c - 90 + 8)
			st.fg = &v
		case c >= 40 && c <= 47:
			v := AnsiColor(c - 40)
			st.bg = &v
		case c >= 100 && c <= 107:
			v := AnsiColor(c - 100 + 8)
			st.bg = &v
		case c == 38 || c == 48:
			v, used, valid := extendedColor(codes[k+1:])
			k += used
			if !valid {
				continue
			}
			if c == 38 {
				st.fg = &v
			} else {
				st.bg = &v
			}
		}
	}
}

// extendedColor resolves the 38;5;n / 38;2;r;g;b argument forms. It
// returns how many parameters were consumed beyond the 38/48 itself.
func extendedColor(rest []int) (v RGB, used int, valid bool) {
	if len(rest) == 0 {
		return RGB{}, 0, false
	}
	switch rest[0] {
	case 5:
		if len(rest) < 2 {
			return RGB{}, len(rest), false
		}
		return Ansi256(rest[1]), 2, true
	case 2:
		if len(rest) < 4 {
			return RGB{}, len(rest), false
		}
		return RGB{
			R: clampChannel(rest[1]),
			G: clampChannel(rest[2]),
			B: clampChannel(rest[3]),
		}, 4, true
	}
	return RGB{}, 1, false
}

// splitSGR parses the parameter list; an empty list or empty elements mean
// 0 (reset), per the SGR convention.
func splitSGR(params string) []int {
	parts := strings.Split(params, ";")
	codes := make([]int, 0, len(parts))
	for _, p := range parts {
		n := 0
		for j := 0; j < len(p); j++ {
			c := p[j]
			if c < '0' || c > '9' {
				n = -1
				break
			}
			n = n*10 + int(c-'0')
		}
		if n < 0 {
			// Not a number; treat the element as ignorable.
			continue
		}
		codes = append(codes, n)
	}
	return codes
}
