package client

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepend-tildeclub/zoitechat-lite/irc"
)

// fakeConn records outbound lines instead of writing to a socket.
type fakeConn struct {
	sent      []string
	connected bool
	failWith  error
}

func (f *fakeConn) SendRaw(line string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.sent = append(f.sent, line)
	return nil
}

func (f *fakeConn) Join(channel string) error {
	return f.SendRaw("JOIN " + channel)
}

func (f *fakeConn) Privmsg(target, text string) error {
	return f.SendRaw(fmt.Sprintf("PRIVMSG %s :%s", target, text))
}

func (f *fakeConn) Quit(message string) error {
	if message == "" {
		message = "Client exiting"
	}
	return f.SendRaw("QUIT :" + message)
}

func (f *fakeConn) Login() error {
	if err := f.SendRaw("NICK me"); err != nil {
		return err
	}
	return f.SendRaw("USER me 0 * :Me")
}

func (f *fakeConn) Connected() bool { return f.connected }

type displayLine struct {
	target string
	line   string
}

func newTestClient(cfg *Config) (*Client, *fakeConn, *[]displayLine) {
	if cfg == nil {
		cfg = &Config{Nick: "me", User: "me", Realname: "Me"}
	}
	conn := &fakeConn{connected: true}
	c := New(conn, cfg)

	var lines []displayLine
	c.OnDisplay = func(target, line string) {
		lines = append(lines, displayLine{target, line})
	}
	return c, conn, &lines
}

func feed(c *Client, raw ...string) {
	for _, line := range raw {
		c.HandleMessage(irc.ParseLine(line))
	}
}

func sentContaining(conn *fakeConn, substr string) bool {
	for _, s := range conn.sent {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func displayedContaining(lines *[]displayLine, substr string) bool {
	for _, d := range *lines {
		if strings.Contains(d.line, substr) {
			return true
		}
	}
	return false
}

func TestAutoJoinOnWelcome(t *testing.T) {
	cfg := &Config{Nick: "me", AutoJoin: []string{"#a", "#b"}}
	c, conn, _ := newTestClient(cfg)

	c.HandleConnected()
	assert.Equal(t, []string{"NICK me", "USER me 0 * :Me"}, conn.sent)

	feed(c, ":irc.net 001 me :Welcome")
	assert.Equal(t, []string{
		"NICK me", "USER me 0 * :Me",
		"JOIN #a", "NAMES #a",
		"JOIN #b", "NAMES #b",
	}, conn.sent)
}

func TestAutoJoinOnlyOnce(t *testing.T) {
	cfg := &Config{Nick: "me", AutoJoin: []string{"#a"}}
	c, conn, _ := newTestClient(cfg)
	c.HandleConnected()

	feed(c, ":irc.net 001 me :Welcome", ":irc.net 376 me :End of MOTD")

	joins := 0
	for _, s := range conn.sent {
		if s == "JOIN #a" {
			joins++
		}
	}
	assert.Equal(t, 1, joins)
}

func TestAutoJoinOnMissingMOTD(t *testing.T) {
	cfg := &Config{Nick: "me", AutoJoin: []string{"#a"}}
	c, conn, _ := newTestClient(cfg)
	c.HandleConnected()

	feed(c, ":irc.net 422 me :MOTD File is missing")
	assert.True(t, sentContaining(conn, "JOIN #a"))
}

func TestNamesPopulateRoster(t *testing.T) {
	c, _, _ := newTestClient(nil)
	var changed []string
	c.OnRosterChanged = func(ch string) { changed = append(changed, ch) }

	feed(c, ":irc.net 353 me = #chan :@alice +bob carol")

	rank, ok := c.Roster().Rank("#chan", "alice")
	require.True(t, ok)
	assert.Equal(t, RankOp, rank)
	rank, _ = c.Roster().Rank("#chan", "bob")
	assert.Equal(t, RankVoice, rank)
	rank, _ = c.Roster().Rank("#chan", "carol")
	assert.Equal(t, RankNone, rank)
	assert.Contains(t, changed, "#chan")

	feed(c, ":irc.net 366 me #chan :End of /NAMES list")
	assert.Equal(t, []string{"#chan", "#chan"}, changed)
}

func TestNamesRefreshDropsStaleMembers(t *testing.T) {
	c, _, _ := newTestClient(nil)

	feed(c,
		":irc.net 353 me = #chan :@alice stale",
		":irc.net 366 me #chan :End of /NAMES list",
	)
	_, ok := c.Roster().Rank("#chan", "stale")
	require.True(t, ok)

	// A later refresh replaces the channel roster wholesale; members no
	// longer listed must be gone.
	feed(c,
		":irc.net 353 me = #chan :@alice",
		":irc.net 353 me = #chan :+bob",
		":irc.net 366 me #chan :End of /NAMES list",
	)

	_, ok = c.Roster().Rank("#chan", "stale")
	assert.False(t, ok)
	rank, ok := c.Roster().Rank("#chan", "alice")
	require.True(t, ok)
	assert.Equal(t, RankOp, rank)
	rank, ok = c.Roster().Rank("#chan", "bob")
	require.True(t, ok)
	assert.Equal(t, RankVoice, rank)
}

func TestJoinAddsAndSelfJoinRefreshesNames(t *testing.T) {
	c, conn, _ := newTestClient(nil)

	feed(c, ":alice!u@h JOIN #chan")
	_, ok := c.Roster().Rank("#chan", "alice")
	assert.True(t, ok)
	assert.False(t, sentContaining(conn, "NAMES #chan"))

	feed(c, ":me!u@h JOIN :#chan")
	assert.True(t, sentContaining(conn, "NAMES #chan"))
}

func TestPartAndQuitRemove(t *testing.T) {
	c, _, _ := newTestClient(nil)
	feed(c,
		":irc.net 353 me = #a :@alice bob",
		":irc.net 353 me = #b :alice",
		":Alice!u@h PART #a :bye",
	)

	_, ok := c.Roster().Rank("#a", "alice")
	assert.False(t, ok)
	_, ok = c.Roster().Rank("#b", "alice")
	assert.True(t, ok)

	feed(c, ":ALICE!u@h QUIT :gone")
	_, ok = c.Roster().Rank("#b", "alice")
	assert.False(t, ok)
}

func TestNickRenameEverywhere(t *testing.T) {
	c, _, _ := newTestClient(nil)
	feed(c,
		":irc.net 353 me = #a :@alice",
		":irc.net 353 me = #b :+alice",
		":alice!u@h NICK :bob",
	)

	rank, ok := c.Roster().Rank("#a", "bob")
	require.True(t, ok)
	assert.Equal(t, RankOp, rank)
	rank, ok = c.Roster().Rank("#b", "bob")
	require.True(t, ok)
	assert.Equal(t, RankVoice, rank)
	_, ok = c.Roster().Rank("#a", "alice")
	assert.False(t, ok)
}

func TestOwnNickRenameTracked(t *testing.T) {
	c, _, _ := newTestClient(nil)
	feed(c, ":me!u@h NICK :me2")
	assert.Equal(t, "me2", c.Nick())
}

func TestPrivmsgToChannel(t *testing.T) {
	c, _, lines := newTestClient(nil)
	feed(c, ":alice!u@h PRIVMSG #chan :hello there")

	require.Len(t, *lines, 1)
	assert.Equal(t, "#chan", (*lines)[0].target)
	assert.Equal(t, "<alice> hello there", (*lines)[0].line)
}

func TestPrivateMessageTargetsSender(t *testing.T) {
	c, _, lines := newTestClient(nil)
	feed(c, ":alice!u@h PRIVMSG Me :psst")

	require.Len(t, *lines, 1)
	assert.Equal(t, "alice", (*lines)[0].target)
	assert.Equal(t, "<alice> psst", (*lines)[0].line)
}

func TestIgnoredHostmaskDropped(t *testing.T) {
	cfg := &Config{
		Nick:        "me",
		IgnoreMasks: CompileIgnoreMasks([]string{"*!*@spam.example"}),
	}
	c, _, lines := newTestClient(cfg)

	feed(c, ":troll!u@spam.example PRIVMSG #chan :buy stuff")
	assert.Empty(t, *lines)

	feed(c, ":alice!u@h PRIVMSG #chan :hi")
	assert.Len(t, *lines, 1)
}

func TestCTCPVersionReplied(t *testing.T) {
	c, conn, lines := newTestClient(nil)
	feed(c, ":alice!u@h PRIVMSG me :\x01VERSION\x01")

	require.Len(t, conn.sent, 1)
	assert.True(t, strings.HasPrefix(conn.sent[0], "NOTICE alice :VERSION "))

	// Reported to status, never opening a conversation with alice.
	require.Len(t, *lines, 1)
	assert.Equal(t, StatusTarget, (*lines)[0].target)
	assert.Contains(t, (*lines)[0].line, "CTCP VERSION request from alice")
}

func TestCTCPPingEchoesArgument(t *testing.T) {
	c, conn, _ := newTestClient(nil)
	feed(c, ":alice!u@h PRIVMSG me :\x01PING 12345\x01")

	require.Len(t, conn.sent, 1)
	assert.Equal(t, "NOTICE alice :PING 12345", conn.sent[0])
}

func TestCTCPTimeReplied(t *testing.T) {
	c, conn, _ := newTestClient(nil)
	feed(c, ":alice!u@h PRIVMSG me :\x01TIME\x01")

	require.Len(t, conn.sent, 1)
	assert.True(t, strings.HasPrefix(conn.sent[0], "NOTICE alice :TIME "))
}

func TestCTCPUnknownNotReplied(t *testing.T) {
	c, conn, lines := newTestClient(nil)
	feed(c, ":alice!u@h PRIVMSG me :\x01CLIENTINFO\x01")

	assert.Empty(t, conn.sent)
	assert.True(t, displayedContaining(lines, "CTCP CLIENTINFO request from alice"))
}

func TestCTCPActionRendered(t *testing.T) {
	c, conn, lines := newTestClient(nil)
	feed(c, ":alice!u@h PRIVMSG #chan :\x01ACTION waves\x01")

	assert.Empty(t, conn.sent)
	require.Len(t, *lines, 1)
	assert.Equal(t, "#chan", (*lines)[0].target)
	assert.Equal(t, "* alice waves", (*lines)[0].line)
}

func TestNoticeRendered(t *testing.T) {
	c, _, lines := newTestClient(nil)
	feed(c, ":alice!u@h NOTICE me :heads up")

	require.Len(t, *lines, 1)
	assert.Equal(t, "alice", (*lines)[0].target)
	assert.Equal(t, "-alice- heads up", (*lines)[0].line)
}

func TestGenericNumericToStatus(t *testing.T) {
	c, _, lines := newTestClient(nil)
	feed(c, ":irc.net 251 me :There are 5 users")

	require.Len(t, *lines, 1)
	assert.Equal(t, StatusTarget, (*lines)[0].target)
	assert.Equal(t, "251 me :There are 5 users", (*lines)[0].line)
}

func TestDisconnectedResetsWhois(t *testing.T) {
	c, _, lines := newTestClient(nil)
	c.BeginWhois("bob")
	c.HandleDisconnected(0, "Disconnected")

	assert.True(t, displayedContaining(lines, "Disconnected."))

	// A stray 318 after disconnect must not produce a report.
	before := len(*lines)
	feed(c, ":irc.net 318 me bob :End of /WHOIS list")
	assert.Equal(t, before+1, len(*lines))
	assert.Equal(t, "End of /WHOIS list", (*lines)[len(*lines)-1].line)
}
