package client

import (
	"fmt"
	"strings"
)

// Run processes one line of user input for the given conversation target.
// Lines not starting with "/" are sent as PRIVMSG to the target; slash
// commands are handled locally.
func (c *Client) Run(target, line string) {
	if line == "" {
		return
	}
	if target == "" {
		target = StatusTarget
	}

	if line[0] != '/' {
		c.sendPrivmsg(target, target, line)
		return
	}

	parts := strings.SplitN(line[1:], " ", 2)
	cmd := parts[0]
	rest := ""
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}

	switch strings.ToLower(cmd) {
	case "join":
		if !c.requireConnected(target) {
			return
		}
		if rest == "" {
			c.display(target, "Usage: /join <channel>")
			return
		}
		if err := c.conn.Join(rest); err != nil {
			c.display(target, "JOIN failed: "+err.Error())
		}

	case "nick":
		if rest == "" {
			c.display(target, "Usage: /nick <nick>")
			return
		}
		c.nick = rest
		if c.conn.Connected() {
			if err := c.conn.SendRaw("NICK " + rest); err != nil {
				c.display(target, "NICK failed: "+err.Error())
			}
		}

	case "me":
		if !c.requireConnected(target) || rest == "" {
			return
		}
		ctcp := fmt.Sprintf("\x01ACTION %s\x01", rest)
		if err := c.conn.Privmsg(target, ctcp); err != nil {
			c.display(target, "ACTION failed: "+err.Error())
			return
		}
		c.display(target, fmt.Sprintf("* %s %s", c.nick, rest))

	case "msg":
		to, text := splitFirstWord(rest)
		if to == "" || text == "" {
			c.display(target, "Usage: /msg <target> <message>")
			return
		}
		if !c.requireConnected(target) {
			return
		}
		c.sendPrivmsg(to, to, text)

	case "query":
		who, text := splitFirstWord(rest)
		if who == "" {
			c.display(target, "Usage: /query <nick> [message]")
			return
		}
		// Opening the conversation is the display layer's business; an
		// empty line nudges it into existence.
		c.display(who, "")
		if text != "" && c.requireConnected(who) {
			c.sendPrivmsg(who, who, text)
		}

	case "raw":
		if !c.requireConnected(target) || rest == "" {
			return
		}
		if err := c.conn.SendRaw(rest); err != nil {
			c.display(target, "RAW failed: "+err.Error())
			return
		}
		c.display(target, "-> "+rest)

	case "whois":
		if rest == "" {
			c.display(target, "Usage: /whois <nick>")
			return
		}
		if !c.requireConnected(StatusTarget) {
			return
		}
		c.BeginWhois(rest)

	case "quit":
		if c.conn.Connected() {
			message := rest
			if message == "" {
				message = c.config.QuitMessage
			}
			if err := c.conn.Quit(message); err != nil {
				c.display(target, "QUIT failed: "+err.Error())
			}
		}

	default:
		c.display(target, "Unknown command: /"+cmd)
	}
}

// sendPrivmsg sends text to `to` and echoes it locally to echoTarget.
func (c *Client) sendPrivmsg(echoTarget, to, text string) {
	if !c.conn.Connected() {
		c.display(echoTarget, "Not connected.")
		return
	}
	if err := c.conn.Privmsg(to, text); err != nil {
		c.display(echoTarget, "Send failed: "+err.Error())
		return
	}
	c.display(echoTarget, fmt.Sprintf("<%s> %s", c.nick, text))
}

func (c *Client) requireConnected(target string) bool {
	if c.conn.Connected() {
		return true
	}
	c.display(target, "Not connected.")
	return false
}

func splitFirstWord(s string) (first, rest string) {
	parts := strings.SplitN(s, " ", 2)
	first = parts[0]
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return first, rest
}
