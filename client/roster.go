package client

import (
	"sort"
	"strings"
)

// Rank is a channel membership privilege level. It is kept as an enum
// internally; prefix characters only exist at the wire and display
// boundaries.
type Rank int

const (
	RankNone Rank = iota
	RankVoice
	RankHalfop
	RankOp
	RankAdmin
	RankOwner
)

// rankFromPrefix maps a NAMES rank prefix character to its Rank.
func rankFromPrefix(c byte) (Rank, bool) {
	switch c {
	case '~':
		return RankOwner, true
	case '&':
		return RankAdmin, true
	case '@':
		return RankOp, true
	case '%':
		return RankHalfop, true
	case '+':
		return RankVoice, true
	}
	return RankNone, false
}

// Prefix returns the display prefix for the rank, "" for RankNone.
func (r Rank) Prefix() string {
	switch r {
	case RankOwner:
		return "~"
	case RankAdmin:
		return "&"
	case RankOp:
		return "@"
	case RankHalfop:
		return "%"
	case RankVoice:
		return "+"
	}
	return ""
}

// Member is one channel occupant.
type Member struct {
	Nick string
	Rank Rank
}

// fold approximates IRC casemapping with a plain ASCII fold. The rfc1459
// extras ({}|~ vs []\^) are not folded; nicks differing only in those
// characters are rare enough not to matter here.
func fold(s string) string {
	return strings.ToLower(s)
}

// IsChannelName reports whether s names a channel.
func IsChannelName(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '#', '&', '!', '+':
		return true
	}
	return false
}

// Roster tracks per-channel membership. Keys are case-folded; the
// originally observed spelling of each nick is preserved for display.
type Roster struct {
	channels map[string]map[string]Member
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{channels: make(map[string]map[string]Member)}
}

func (r *Roster) channel(name string) map[string]Member {
	key := fold(name)
	m := r.channels[key]
	if m == nil {
		m = make(map[string]Member)
		r.channels[key] = m
	}
	return m
}

// AddToken inserts one NAMES token ("@nick", "+nick", "nick") into the
// channel. An existing higher rank is never downgraded.
func (r *Roster) AddToken(channel, token string) {
	if !IsChannelName(channel) || token == "" {
		return
	}
	rank := RankNone
	nick := token
	if rk, ok := rankFromPrefix(token[0]); ok {
		rank = rk
		nick = token[1:]
	}
	if nick == "" {
		return
	}
	r.Add(channel, nick, rank)
}

// Add upserts a nick with the given rank; a lower rank never replaces a
// higher one.
func (r *Roster) Add(channel, nick string, rank Rank) {
	if !IsChannelName(channel) || nick == "" {
		return
	}
	users := r.channel(channel)
	key := fold(nick)
	if existing, ok := users[key]; ok {
		if rank > existing.Rank {
			existing.Rank = rank
		}
		existing.Nick = nick
		users[key] = existing
		return
	}
	users[key] = Member{Nick: nick, Rank: rank}
}

// Remove deletes a nick from one channel.
func (r *Roster) Remove(channel, nick string) {
	if users, ok := r.channels[fold(channel)]; ok {
		delete(users, fold(nick))
	}
}

// RemoveEverywhere deletes a nick from every channel.
func (r *Roster) RemoveEverywhere(nick string) {
	key := fold(nick)
	for _, users := range r.channels {
		delete(users, key)
	}
}

// Rename moves a nick to a new name in every channel, preserving rank.
func (r *Roster) Rename(oldNick, newNick string) {
	oldKey, newKey := fold(oldNick), fold(newNick)
	for _, users := range r.channels {
		member, ok := users[oldKey]
		if !ok {
			continue
		}
		delete(users, oldKey)
		member.Nick = newNick
		users[newKey] = member
	}
}

// Clear forgets a channel's membership (fresh NAMES refresh incoming).
func (r *Roster) Clear(channel string) {
	delete(r.channels, fold(channel))
}

// Rank returns the rank of nick on channel.
func (r *Roster) Rank(channel, nick string) (Rank, bool) {
	users, ok := r.channels[fold(channel)]
	if !ok {
		return RankNone, false
	}
	member, ok := users[fold(nick)]
	return member.Rank, ok
}

// Members returns the channel occupants sorted by descending rank, then
// nick.
func (r *Roster) Members(channel string) []Member {
	users := r.channels[fold(channel)]
	out := make([]Member, 0, len(users))
	for _, m := range users {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank > out[j].Rank
		}
		return fold(out[i].Nick) < fold(out[j].Nick)
	})
	return out
}

// Channels returns the channels with tracked membership.
func (r *Roster) Channels() []string {
	out := make([]string, 0, len(r.channels))
	for ch := range r.channels {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}
