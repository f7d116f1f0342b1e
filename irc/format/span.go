package ircf

// Span is one styled run of text. Foreground/Background are nil when no
// color is active. Concatenating the Text of all spans produced for an
// input reconstructs that input with the control codes removed.
type Span struct {
	Text       string
	Bold       bool
	Underline  bool
	Foreground *RGB
	Background *RGB
}

// IsPlain reports whether the span carries no styling at all.
func (s Span) IsPlain() bool {
	return !s.Bold && !s.Underline && s.Foreground == nil && s.Background == nil
}

// style is the interpreter's accumulated state between control codes.
// Reverse is resolved at emission time, not stored on spans.
type style struct {
	bold      bool
	underline bool
	reverse   bool
	fg        *RGB
	bg        *RGB
}

func (st *style) reset() {
	*st = style{}
}

// span materializes the current style for a run of text, swapping
// foreground and background while reverse video is active.
func (st *style) span(text string) Span {
	fg, bg := st.fg, st.bg
	if st.reverse {
		fg, bg = bg, fg
	}
	return Span{
		Text:       text,
		Bold:       st.bold,
		Underline:  st.underline,
		Foreground: fg,
		Background: bg,
	}
}
