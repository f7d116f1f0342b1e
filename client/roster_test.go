package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankFromPrefix(t *testing.T) {
	cases := []struct {
		prefix byte
		rank   Rank
	}{
		{'~', RankOwner},
		{'&', RankAdmin},
		{'@', RankOp},
		{'%', RankHalfop},
		{'+', RankVoice},
	}
	for _, tc := range cases {
		rank, ok := rankFromPrefix(tc.prefix)
		assert.True(t, ok)
		assert.Equal(t, tc.rank, rank)
	}

	_, ok := rankFromPrefix('a')
	assert.False(t, ok)
}

func TestRankOrdering(t *testing.T) {
	assert.True(t, RankOwner > RankAdmin)
	assert.True(t, RankAdmin > RankOp)
	assert.True(t, RankOp > RankHalfop)
	assert.True(t, RankHalfop > RankVoice)
	assert.True(t, RankVoice > RankNone)
}

func TestAddTokenNeverDowngrades(t *testing.T) {
	// Either order yields '@': a later bare token must not downgrade.
	for _, tokens := range [][]string{
		{"@alice", "alice"},
		{"alice", "@alice"},
	} {
		r := NewRoster()
		for _, tok := range tokens {
			r.AddToken("#chan", tok)
		}
		rank, ok := r.Rank("#chan", "alice")
		assert.True(t, ok)
		assert.Equal(t, RankOp, rank, "tokens %v", tokens)
	}
}

func TestAddTokenUpgrades(t *testing.T) {
	r := NewRoster()
	r.AddToken("#chan", "+bob")
	r.AddToken("#chan", "@bob")
	rank, _ := r.Rank("#chan", "bob")
	assert.Equal(t, RankOp, rank)
}

func TestRosterCaseInsensitive(t *testing.T) {
	r := NewRoster()
	r.AddToken("#Chan", "@Alice")

	rank, ok := r.Rank("#chan", "alice")
	assert.True(t, ok)
	assert.Equal(t, RankOp, rank)

	r.Remove("#CHAN", "ALICE")
	_, ok = r.Rank("#chan", "alice")
	assert.False(t, ok)
}

func TestRenamePreservesRankEverywhere(t *testing.T) {
	r := NewRoster()
	r.AddToken("#a", "@alice")
	r.AddToken("#b", "+alice")
	r.AddToken("#b", "carol")

	r.Rename("alice", "bob")

	rank, ok := r.Rank("#a", "bob")
	assert.True(t, ok)
	assert.Equal(t, RankOp, rank)

	rank, ok = r.Rank("#b", "bob")
	assert.True(t, ok)
	assert.Equal(t, RankVoice, rank)

	_, ok = r.Rank("#a", "alice")
	assert.False(t, ok)
	_, ok = r.Rank("#b", "alice")
	assert.False(t, ok)
}

func TestRemoveEverywhere(t *testing.T) {
	r := NewRoster()
	r.AddToken("#a", "alice")
	r.AddToken("#b", "@alice")
	r.AddToken("#b", "bob")

	r.RemoveEverywhere("Alice")

	_, ok := r.Rank("#a", "alice")
	assert.False(t, ok)
	_, ok = r.Rank("#b", "alice")
	assert.False(t, ok)
	_, ok = r.Rank("#b", "bob")
	assert.True(t, ok)
}

func TestMembersSortedByRankThenNick(t *testing.T) {
	r := NewRoster()
	for _, tok := range []string{"zoe", "+victor", "@oscar", "~owen", "anna"} {
		r.AddToken("#chan", tok)
	}

	members := r.Members("#chan")
	nicks := make([]string, len(members))
	for i, m := range members {
		nicks[i] = m.Rank.Prefix() + m.Nick
	}
	assert.Equal(t, []string{"~owen", "@oscar", "+victor", "anna", "zoe"}, nicks)
}

func TestIsChannelName(t *testing.T) {
	assert.True(t, IsChannelName("#chan"))
	assert.True(t, IsChannelName("&local"))
	assert.True(t, IsChannelName("!chan"))
	assert.True(t, IsChannelName("+modeless"))
	assert.False(t, IsChannelName("bob"))
	assert.False(t, IsChannelName(""))
}
