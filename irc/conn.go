package irc

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// State is the lifecycle state of a Conn.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// Identity is the registration identity sent at login.
type Identity struct {
	Nick     string
	User     string
	Realname string
}

const dialTimeout = 30 * time.Second

// Disconnect codes carried by OnDisconnected. Transport errors in Go carry
// no numeric code, so everything fatal maps to CodeError.
const (
	CodeClean = 0
	CodeError = 1
)

// Conn is one IRC server session. It owns the socket, frames inbound lines,
// serializes outbound writes and delivers events through the callback
// fields. Callbacks must be set before Connect and not changed afterwards.
//
// OnRawLine and OnMessage fire from a single goroutine per connection, in
// line-arrival order. OnConnected fires from the goroutine calling Connect;
// OnDisconnected fires either from the read loop (transport fault, EOF) or
// from the goroutine calling Disconnect, and fires at most once per
// established connection.
type Conn struct {
	OnConnected    func()
	OnDisconnected func(code int, message string)
	OnRawLine      func(line string)
	OnMessage      func(msg *Message)

	// TLSConfig overrides the config used when connecting with TLS.
	TLSConfig *tls.Config

	mu         sync.Mutex
	identity   Identity
	conn       net.Conn
	state      State
	generation uint64

	wmu sync.Mutex // serializes writes; independent of the read path
}

// NewConn returns a disconnected session.
func NewConn() *Conn {
	return &Conn{}
}

// SetIdentity sets the registration identity used by Login.
func (c *Conn) SetIdentity(id Identity) {
	c.mu.Lock()
	c.identity = id
	c.mu.Unlock()
}

// Nick returns the identity nick.
func (c *Conn) Nick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity.Nick
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the session currently has a live transport.
func (c *Conn) Connected() bool {
	return c.State() == StateConnected
}

// Connect tears down any previous connection and establishes a new one.
// On success the session is Connected, OnConnected has fired and the read
// loop is running. On failure the session stays Disconnected.
func (c *Conn) Connect(host string, port uint16, useTLS bool) error {
	c.Disconnect()

	c.mu.Lock()
	c.state = StateConnecting
	c.mu.Unlock()

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	dialer := &net.Dialer{
		Timeout: dialTimeout,
		// IRC sessions are long-lived and mostly idle; keepalive is the
		// only liveness probe once connected.
		KeepAlive: 30 * time.Second,
	}

	var (
		conn net.Conn
		err  error
	)
	if useTLS {
		cfg := c.TLSConfig
		if cfg == nil {
			cfg = &tls.Config{ServerName: host}
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, cfg)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return errors.Wrapf(err, "could not connect to %s", addr)
	}

	c.mu.Lock()
	c.conn = conn
	c.state = StateConnected
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	log.WithFields(log.Fields{
		"addr": addr,
		"tls":  useTLS,
	}).Debugln("IRC transport established")

	if c.OnConnected != nil {
		c.OnConnected()
	}

	go c.readLoop(conn, gen)
	return nil
}

// Disconnect cancels the pending read, closes the transport and emits
// disconnected(0, "Disconnected") if the session was connected. Calling it
// on an already-disconnected session is a no-op.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	wasConnected := c.state == StateConnected
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
	// Invalidate the read loop: its next completion no longer belongs to
	// the current transport generation and is silently dropped.
	c.generation++
	c.mu.Unlock()

	if wasConnected && c.OnDisconnected != nil {
		c.OnDisconnected(CodeClean, "Disconnected")
	}
}

// stale reports whether a read loop started for generation gen has been
// superseded by a reconnect or an explicit disconnect.
func (c *Conn) stale(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation != gen || c.state != StateConnected
}

// fail tears down the transport after a terminal read error. Returns false
// when the failure belongs to a superseded generation and must be swallowed.
func (c *Conn) fail(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen || c.state != StateConnected {
		return false
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
	c.generation++
	return true
}

func (c *Conn) readLoop(conn net.Conn, gen uint64) {
	reader := bufio.NewReader(conn)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !c.fail(gen) {
				// Normal during disconnect or reconnect teardown.
				return
			}
			if c.OnDisconnected != nil {
				if err == io.EOF {
					c.OnDisconnected(CodeClean, "EOF")
				} else {
					c.OnDisconnected(CodeError, err.Error())
				}
			}
			return
		}

		if c.stale(gen) {
			return
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if c.OnRawLine != nil {
			c.OnRawLine(line)
		}

		msg := ParseLine(line)
		if msg == nil {
			continue
		}

		// PING must be answered before any other consumer observes the
		// message, so it lives here rather than in the dispatcher.
		if msg.Command == "PING" {
			payload := msg.Trailing
			if !msg.HasTrailing {
				payload = msg.Param(0)
			}
			if err := c.SendRaw("PONG :" + payload); err != nil {
				log.WithError(err).Warnln("could not answer PING")
			}
		}

		if c.OnMessage != nil {
			c.OnMessage(msg)
		}
	}
}

// SendRaw writes one protocol line, appending CRLF. Concurrent callers are
// serialized; their bytes never interleave on the wire.
func (c *Conn) SendRaw(line string) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		return errors.New("not connected")
	}

	c.wmu.Lock()
	_, err := conn.Write([]byte(line + "\r\n"))
	c.wmu.Unlock()

	if err != nil {
		return errors.Wrap(err, "write failed")
	}
	return nil
}

// Login registers the session identity with NICK and USER.
func (c *Conn) Login() error {
	c.mu.Lock()
	id := c.identity
	c.mu.Unlock()

	if id.Nick == "" || id.User == "" || id.Realname == "" {
		return errors.New("identity not set")
	}

	if err := c.SendRaw("NICK " + id.Nick); err != nil {
		return err
	}
	return c.SendRaw(fmt.Sprintf("USER %s 0 * :%s", id.User, id.Realname))
}

// Join sends a JOIN for the given channel.
func (c *Conn) Join(channel string) error {
	return c.SendRaw("JOIN " + channel)
}

// Privmsg sends a PRIVMSG to a channel or nick.
func (c *Conn) Privmsg(target, text string) error {
	return c.SendRaw(fmt.Sprintf("PRIVMSG %s :%s", target, text))
}

// Quit sends a QUIT with the given message (or the default when empty).
// It does not tear down the transport; the server or a Disconnect does.
func (c *Conn) Quit(message string) error {
	if message == "" {
		message = "Client exiting"
	}
	return c.SendRaw("QUIT :" + message)
}
