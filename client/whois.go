package client

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deepend-tildeclub/zoitechat-lite/irc"
)

// Whois collects the numerics of one WHOIS exchange. At most one is in
// flight per session; it is finalized by numeric 318 or cleared on
// disconnect.
type Whois struct {
	Nick string

	Away       string
	UserHost   string
	Realname   string
	Server     string
	ServerInfo string
	Operator   bool
	IdleSecs   int64
	Signon     time.Time
	Channels   string
	Account    string
	Secure     bool
}

// matches reports whether a numeric's subject nick (params[1], after the
// requester) belongs to this aggregate.
func (w *Whois) matches(msg *irc.Message) bool {
	return w != nil && strings.EqualFold(msg.Param(1), w.Nick)
}

// absorb applies one WHOIS numeric to the aggregate. It reports whether
// the numeric was consumed (and so must not be rendered elsewhere).
func (w *Whois) absorb(msg *irc.Message) bool {
	switch msg.Command {
	case "301":
		w.Away = msg.Trailing
	case "311":
		// <nick> <user> <host> * :<real name>
		w.UserHost = msg.Param(2) + "@" + msg.Param(3)
		w.Realname = msg.Trailing
	case "312":
		w.Server = msg.Param(2)
		w.ServerInfo = msg.Trailing
	case "313":
		w.Operator = true
	case "317":
		w.IdleSecs, _ = strconv.ParseInt(msg.Param(2), 10, 64)
		if epoch, err := strconv.ParseInt(msg.Param(3), 10, 64); err == nil {
			w.Signon = time.Unix(epoch, 0)
		}
	case "319":
		w.Channels = msg.Trailing
	case "320", "671":
		w.Secure = true
	case "330":
		w.Account = msg.Param(2)
	default:
		return false
	}
	return true
}

// Report renders the aggregate as human-readable status lines.
func (w *Whois) Report() []string {
	lines := []string{fmt.Sprintf("WHOIS %s:", w.Nick)}

	if w.UserHost != "" || w.Realname != "" {
		lines = append(lines, fmt.Sprintf("  %s (%s): %s", w.Nick, w.UserHost, w.Realname))
	}
	if w.Server != "" {
		lines = append(lines, fmt.Sprintf("  server: %s (%s)", w.Server, w.ServerInfo))
	}
	if w.Channels != "" {
		lines = append(lines, "  channels: "+w.Channels)
	}
	if w.Away != "" {
		lines = append(lines, "  away: "+w.Away)
	}
	if w.Operator {
		lines = append(lines, "  is an IRC operator")
	}
	if w.IdleSecs > 0 || !w.Signon.IsZero() {
		line := fmt.Sprintf("  idle %d seconds", w.IdleSecs)
		if !w.Signon.IsZero() {
			line += ", signed on " + w.Signon.Format("2006-01-02 15:04:05")
		}
		lines = append(lines, line)
	}
	if w.Account != "" {
		lines = append(lines, "  logged in as "+w.Account)
	}
	if w.Secure {
		lines = append(lines, "  is using a secure connection")
	}
	return lines
}

// whoisFallbackLine formats a WHOIS-family numeric as a standalone status
// line when no aggregate is collecting it. The last resort is the trailing
// text verbatim.
func whoisFallbackLine(msg *irc.Message) string {
	nick := msg.Param(1)
	switch msg.Command {
	case "301":
		return fmt.Sprintf("%s is away: %s", nick, msg.Trailing)
	case "311":
		return fmt.Sprintf("%s is %s@%s (%s)", nick, msg.Param(2), msg.Param(3), msg.Trailing)
	case "312":
		return fmt.Sprintf("%s is on server %s (%s)", nick, msg.Param(2), msg.Trailing)
	case "313":
		return fmt.Sprintf("%s is an IRC operator", nick)
	case "317":
		return fmt.Sprintf("%s has been idle %s seconds", nick, msg.Param(2))
	case "319":
		return fmt.Sprintf("%s is on channels: %s", nick, msg.Trailing)
	case "330":
		return fmt.Sprintf("%s is logged in as %s", nick, msg.Param(2))
	case "320", "671":
		if msg.HasTrailing {
			return fmt.Sprintf("%s %s", nick, msg.Trailing)
		}
		return fmt.Sprintf("%s is using a secure connection", nick)
	}
	if msg.HasTrailing {
		return msg.Trailing
	}
	return ""
}

// isWhoisNumeric reports whether cmd belongs to the WHOIS reply family
// handled by the aggregate.
func isWhoisNumeric(cmd string) bool {
	switch cmd {
	case "301", "311", "312", "313", "317", "318", "319", "320", "330", "671":
		return true
	}
	return false
}
