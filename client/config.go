package client

import (
	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"
)

// StatusTarget is the pseudo-conversation that receives server output,
// CTCP reports and anything without a better home.
const StatusTarget = "status"

// Version is the client identification sent in CTCP VERSION replies.
const Version = "ZoiteChat Lite (Go)"

// Config to be passed to New.
type Config struct {
	// Identity used at login.
	Nick     string
	User     string
	Realname string

	// AutoJoin channels, joined once registration completes.
	AutoJoin []string

	// QuitMessage is sent with /quit when the user gives none.
	QuitMessage string

	// IgnoreMasks are hostmask globs; PRIVMSGs from matching senders are
	// dropped before any rendering.
	IgnoreMasks []glob.Glob
}

// CompileIgnoreMasks turns hostmask patterns into globs, skipping (and
// logging) any that do not compile.
func CompileIgnoreMasks(patterns []string) []glob.Glob {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			log.WithError(err).WithField("pattern", p).Warnln("ignoring bad ignore mask")
			continue
		}
		globs = append(globs, g)
	}
	return globs
}
