package client

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// ctcpDelim is the CTCP delimiter byte (SOH).
const ctcpDelim = "\x01"

// isCTCP reports whether a PRIVMSG text is a delimited CTCP request.
func isCTCP(text string) bool {
	return len(text) >= 2 && strings.HasPrefix(text, ctcpDelim) && strings.HasSuffix(text, ctcpDelim)
}

// isCTCPAction reports whether text is a CTCP ACTION ("/me").
func isCTCPAction(text string) bool {
	return strings.HasPrefix(text, ctcpDelim+"ACTION ") && strings.HasSuffix(text, ctcpDelim)
}

// ctcpActionText returns the action body of a CTCP ACTION.
func ctcpActionText(text string) string {
	return text[len(ctcpDelim+"ACTION ") : len(text)-1]
}

// handleCTCP reports a CTCP request to the status target and answers the
// three auto-replied subtypes. CTCP requests never open a conversation
// target. ACTION is not handled here.
func (c *Client) handleCTCP(from, text string) {
	inner := text[1 : len(text)-1]
	parts := strings.SplitN(inner, " ", 2)
	cmd := parts[0]
	arg := ""
	if len(parts) == 2 {
		arg = parts[1]
	}

	line := fmt.Sprintf("CTCP %s request from %s", cmd, from)
	if arg != "" {
		line += " " + arg
	}
	c.display(StatusTarget, line)

	if from == "" {
		return
	}

	var reply string
	switch strings.ToUpper(cmd) {
	case "VERSION":
		reply = fmt.Sprintf("NOTICE %s :VERSION %s", from, Version)
	case "PING":
		reply = fmt.Sprintf("NOTICE %s :PING %s", from, arg)
	case "TIME":
		reply = fmt.Sprintf("NOTICE %s :TIME %s", from, time.Now().Format("2006-01-02 15:04:05 -0700"))
	default:
		log.WithFields(log.Fields{
			"command": cmd,
			"from":    from,
		}).Debugln("unknown CTCP request, not replying")
		return
	}

	if err := c.conn.SendRaw(reply); err != nil {
		c.display(StatusTarget, fmt.Sprintf("CTCP %s reply to %s failed: %s", cmd, from, err))
	}
}
