// Package client derives higher-level chat state from the IRC message
// stream: channel rosters, WHOIS aggregation, CTCP replies, auto-join
// timing and display lines for a frontend to render.
package client

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/deepend-tildeclub/zoitechat-lite/irc"
)

// Sender is the slice of the session the dispatcher talks back through.
// *irc.Conn satisfies it.
type Sender interface {
	SendRaw(line string) error
	Join(channel string) error
	Privmsg(target, text string) error
	Quit(message string) error
	Login() error
	Connected() bool
}

// regState tracks registration progress for auto-join timing.
type regState int

const (
	regIdle regState = iota
	regAwaiting
	regRegistered
)

// Client consumes session events and maintains the derived protocol
// state. It must only be driven from one goroutine at a time; see the
// concurrency notes on irc.Conn.
type Client struct {
	// OnDisplay receives a rendered line for a conversation target.
	OnDisplay func(target, line string)
	// OnRosterChanged fires when a channel's membership changed.
	OnRosterChanged func(channel string)
	// OnWhois receives the finalized aggregate of a WHOIS exchange.
	OnWhois func(w *Whois)

	conn   Sender
	config *Config

	nick   string
	state  regState
	roster *Roster
	whois  *Whois

	// Channels with a NAMES burst in flight (first 353 seen, 366 pending).
	naming map[string]bool
}

// New creates a dispatcher for the given session and config.
func New(conn Sender, config *Config) *Client {
	return &Client{
		conn:   conn,
		config: config,
		nick:   config.Nick,
		roster: NewRoster(),
		naming: make(map[string]bool),
	}
}

// Nick returns the nick the client currently believes it has.
func (c *Client) Nick() string {
	return c.nick
}

// Roster exposes the channel membership state for rendering.
func (c *Client) Roster() *Roster {
	return c.roster
}

func (c *Client) display(target, line string) {
	if c.OnDisplay != nil {
		c.OnDisplay(target, line)
	}
}

func (c *Client) rosterChanged(channel string) {
	if c.OnRosterChanged != nil {
		c.OnRosterChanged(channel)
	}
}

// HandleConnected logs the session in and queues auto-join for when
// registration completes.
func (c *Client) HandleConnected() {
	c.display(StatusTarget, "Connected.")

	if err := c.conn.Login(); err != nil {
		c.display(StatusTarget, "Login failed: "+err.Error())
		return
	}
	c.state = regAwaiting

	// Joining before registration completes is unreliable across servers;
	// the join happens on 001 / end-of-MOTD.
	if len(c.config.AutoJoin) > 0 {
		c.display(StatusTarget, "Auto-join queued: "+strings.Join(c.config.AutoJoin, ", "))
	}
}

// HandleDisconnected reports the disconnect and resets per-connection
// state.
func (c *Client) HandleDisconnected(code int, message string) {
	if code == 0 && (message == "" || message == "Disconnected") {
		c.display(StatusTarget, "Disconnected.")
	} else {
		c.display(StatusTarget, fmt.Sprintf("Disconnected (%d): %s", code, message))
	}
	c.state = regIdle
	c.whois = nil
	c.naming = make(map[string]bool)
}

// HandleMessage is the reducer over the inbound message stream.
func (c *Client) HandleMessage(msg *irc.Message) {
	if msg == nil || msg.Command == "" {
		return
	}

	switch msg.Command {
	case "001", "376", "422":
		if c.state == regAwaiting {
			c.state = regRegistered
			c.autoJoin()
		}

	case "353":
		c.handleNamesReply(msg)

	case "366":
		if channel := msg.Param(1); IsChannelName(channel) {
			delete(c.naming, fold(channel))
			c.rosterChanged(channel)
		}

	case "NICK":
		oldNick := irc.ExtractNick(msg.Prefix)
		newNick := msg.Trailing
		if newNick == "" {
			newNick = msg.Param(0)
		}
		if oldNick != "" && newNick != "" {
			c.roster.Rename(oldNick, newNick)
			for _, ch := range c.roster.Channels() {
				c.rosterChanged(ch)
			}
			if strings.EqualFold(oldNick, c.nick) {
				c.nick = newNick
			}
		}

	case "PRIVMSG":
		c.handlePrivmsg(msg)
		return

	case "NOTICE":
		c.handleNotice(msg)
		return

	case "JOIN":
		c.handleJoin(msg)
		return

	case "PART":
		c.handlePart(msg)
		return

	case "QUIT":
		c.handleQuit(msg)
		return

	default:
		if isWhoisNumeric(msg.Command) && c.handleWhoisNumeric(msg) {
			return
		}
	}

	// Numerics and everything else go to status.
	line := msg.Command
	if p0 := msg.Param(0); p0 != "" {
		line += " " + p0
	}
	if msg.HasTrailing {
		line += " :" + msg.Trailing
	}
	c.display(StatusTarget, line)
}

// autoJoin joins the configured channels; per-channel failures are
// reported without aborting the rest.
func (c *Client) autoJoin() {
	for _, channel := range c.config.AutoJoin {
		if !IsChannelName(channel) {
			continue
		}
		if err := c.conn.SendRaw("JOIN " + channel); err != nil {
			c.display(StatusTarget, fmt.Sprintf("Auto-join JOIN %s failed: %s", channel, err))
			continue
		}
		c.display(StatusTarget, "Joining "+channel+" ...")

		// NAMES kick so the roster can populate.
		if err := c.conn.SendRaw("NAMES " + channel); err != nil {
			c.display(StatusTarget, fmt.Sprintf("NAMES %s failed: %s", channel, err))
		}
	}
}

func (c *Client) handleNamesReply(msg *irc.Message) {
	// 353: <client> <symbol> <channel> :tokens (be lenient about the
	// middle params; some servers omit the symbol).
	channel := ""
	if len(msg.Params) >= 3 {
		channel = msg.Param(2)
	} else if len(msg.Params) >= 1 {
		channel = msg.Params[len(msg.Params)-1]
	}
	if !IsChannelName(channel) || msg.Trailing == "" {
		return
	}
	// The first 353 of a burst supersedes whatever we tracked before;
	// stale members must not survive a NAMES refresh.
	key := fold(channel)
	if !c.naming[key] {
		c.roster.Clear(channel)
		c.naming[key] = true
	}
	for _, token := range strings.Fields(msg.Trailing) {
		c.roster.AddToken(channel, token)
	}
	c.rosterChanged(channel)
}

func (c *Client) ignored(prefix string) bool {
	for _, g := range c.config.IgnoreMasks {
		if g.Match(prefix) {
			return true
		}
	}
	return false
}

// resolveTarget maps a PRIVMSG/NOTICE destination to the conversation
// target: a message addressed to the local nick belongs to the sender.
func (c *Client) resolveTarget(destination, from string) string {
	if destination != "" && strings.EqualFold(destination, c.nick) {
		if from != "" {
			return from
		}
		return StatusTarget
	}
	if destination == "" {
		return StatusTarget
	}
	return destination
}

func (c *Client) handlePrivmsg(msg *irc.Message) {
	if c.ignored(msg.Prefix) {
		log.WithField("prefix", msg.Prefix).Debugln("dropping PRIVMSG from ignored hostmask")
		return
	}

	from := irc.ExtractNick(msg.Prefix)
	text := msg.Trailing

	if isCTCP(text) && !isCTCPAction(text) {
		c.handleCTCP(from, text)
		return
	}

	target := c.resolveTarget(msg.Param(0), from)
	if from == "" {
		from = "?"
	}

	if isCTCPAction(text) {
		c.display(target, fmt.Sprintf("* %s %s", from, ctcpActionText(text)))
	} else {
		c.display(target, fmt.Sprintf("<%s> %s", from, text))
	}
}

func (c *Client) handleNotice(msg *irc.Message) {
	from := irc.ExtractNick(msg.Prefix)
	target := c.resolveTarget(msg.Param(0), from)
	if from == "" {
		// Server notice before registration.
		c.display(StatusTarget, msg.Trailing)
		return
	}
	c.display(target, fmt.Sprintf("-%s- %s", from, msg.Trailing))
}

func (c *Client) handleJoin(msg *irc.Message) {
	nick := irc.ExtractNick(msg.Prefix)
	channel := msg.Trailing
	if channel == "" {
		channel = msg.Param(0)
	}
	if channel == "" {
		return
	}

	if nick == "" {
		nick = "?"
	}
	c.display(channel, fmt.Sprintf("• %s joined", nick))

	if !IsChannelName(channel) {
		return
	}
	c.roster.Add(channel, nick, RankNone)
	c.rosterChanged(channel)

	// Self-join is the reliable point at which the full roster becomes
	// available.
	if strings.EqualFold(nick, c.nick) {
		if err := c.conn.SendRaw("NAMES " + channel); err != nil {
			c.display(StatusTarget, fmt.Sprintf("NAMES %s failed: %s", channel, err))
		}
	}
}

func (c *Client) handlePart(msg *irc.Message) {
	nick := irc.ExtractNick(msg.Prefix)
	channel := msg.Param(0)
	if channel == "" {
		return
	}

	line := fmt.Sprintf("• %s left", orUnknown(nick))
	if msg.Trailing != "" {
		line += " (" + msg.Trailing + ")"
	}
	c.display(channel, line)

	if IsChannelName(channel) && nick != "" {
		c.roster.Remove(channel, nick)
		c.rosterChanged(channel)
	}
}

func (c *Client) handleQuit(msg *irc.Message) {
	nick := irc.ExtractNick(msg.Prefix)

	line := fmt.Sprintf("• %s quit", orUnknown(nick))
	if msg.Trailing != "" {
		line += " (" + msg.Trailing + ")"
	}
	c.display(StatusTarget, line)

	if nick != "" {
		c.roster.RemoveEverywhere(nick)
		for _, ch := range c.roster.Channels() {
			c.rosterChanged(ch)
		}
	}
}

// handleWhoisNumeric routes a WHOIS-family numeric either into the open
// aggregate or to a standalone status line. It reports whether the
// numeric was fully handled.
func (c *Client) handleWhoisNumeric(msg *irc.Message) bool {
	if c.whois.matches(msg) {
		if msg.Command == "318" {
			w := c.whois
			c.whois = nil
			for _, line := range w.Report() {
				c.display(StatusTarget, line)
			}
			if c.OnWhois != nil {
				c.OnWhois(w)
			}
			return true
		}
		if c.whois.absorb(msg) {
			return true
		}
		return false
	}

	if c.whois != nil {
		// An aggregate is open for someone else; never finalize or
		// pollute it, but don't swallow the line either.
		line := whoisFallbackLine(msg)
		if line != "" {
			c.display(StatusTarget, line)
			return true
		}
		return false
	}

	line := whoisFallbackLine(msg)
	if line == "" {
		return false
	}
	c.display(StatusTarget, line)
	return true
}

// BeginWhois opens a fresh WHOIS aggregate for nick, discarding any prior
// one, and sends the query.
func (c *Client) BeginWhois(nick string) {
	nick = strings.TrimSpace(nick)
	if nick == "" {
		return
	}
	c.whois = &Whois{Nick: nick}
	if err := c.conn.SendRaw("WHOIS " + nick); err != nil {
		c.whois = nil
		c.display(StatusTarget, "WHOIS failed: "+err.Error())
		return
	}
	c.display(StatusTarget, "-> WHOIS "+nick)
}

func orUnknown(nick string) string {
	if nick == "" {
		return "?"
	}
	return nick
}
