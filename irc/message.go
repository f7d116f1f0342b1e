package irc

import "strings"

// Message is one parsed IRC protocol line. The trailing parameter (the final
// ":"-prefixed argument) is kept separate from Params; HasTrailing
// distinguishes an absent trailing from an empty one.
type Message struct {
	Prefix   string
	Command  string
	Params   []string
	Trailing string

	HasTrailing bool
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

// ParseLine parses a single RFC1459-ish protocol line. It returns nil for
// lines that carry no command word (empty or whitespace-only input); it
// never fails with an error.
func ParseLine(line string) *Message {
	p := 0
	n := len(line)
	msg := &Message{}

	for p < n && isSpace(line[p]) {
		p++
	}

	// Prefix
	if p < n && line[p] == ':' {
		p++
		start := p
		for p < n && !isSpace(line[p]) {
			p++
		}
		msg.Prefix = line[start:p]
		for p < n && isSpace(line[p]) {
			p++
		}
	}

	// Command
	if p >= n {
		return nil
	}
	start := p
	for p < n && !isSpace(line[p]) {
		p++
	}
	msg.Command = strings.ToUpper(line[start:p])
	for p < n && isSpace(line[p]) {
		p++
	}

	// Params + trailing
	for p < n {
		if line[p] == ':' {
			msg.Trailing = line[p+1:]
			msg.HasTrailing = true
			break
		}
		start = p
		for p < n && !isSpace(line[p]) {
			p++
		}
		if p > start {
			msg.Params = append(msg.Params, line[start:p])
		}
		for p < n && isSpace(line[p]) {
			p++
		}
	}

	return msg
}

// Param returns the positional parameter at idx, or "" when out of range.
func (m *Message) Param(idx int) string {
	if m == nil || idx < 0 || idx >= len(m.Params) {
		return ""
	}
	return m.Params[idx]
}

// ExtractNick returns the nick portion of a "nick!user@host" prefix. A
// prefix with no "!" (a server name) is returned whole.
func ExtractNick(prefix string) string {
	if prefix == "" {
		return ""
	}
	if i := strings.IndexByte(prefix, '!'); i >= 0 {
		return prefix[:i]
	}
	return prefix
}
