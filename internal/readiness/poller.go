package readiness

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mlrig/gpuprep/internal/observability"
)

const (
	DefaultMaxAttempts = 90
	DefaultInterval    = time.Second
)

var tokenPattern = regexp.MustCompile(`token=(\S+)`)

// Endpoint describes a running notebook server as discovered from the status
// listing. Token is only ever set when StatusLine is set; a server running
// without token auth yields a StatusLine with an empty Token.
type Endpoint struct {
	Port        int
	SessionName string
	StatusLine  string
	Token       string
}

// BrowserURL builds the local connection URL for the endpoint. The URL form
// with the token query parameter is only available when a token was extracted.
func (e Endpoint) BrowserURL() (string, bool) {
	if e.Token == "" {
		return "", false
	}
	return fmt.Sprintf("http://localhost:%d/?token=%s", e.Port, e.Token), true
}

// StatusFunc returns the current server listing, one running instance per
// line of free-form text.
type StatusFunc func() (string, error)

// Policy is a bounded retry schedule. Sleep is injectable so tests never wait
// on a real clock.
type Policy struct {
	MaxAttempts int
	Interval    time.Duration
	Sleep       func(time.Duration)
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
		Sleep:       time.Sleep,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	if p.Sleep == nil {
		p.Sleep = time.Sleep
	}
	return p
}

// Poller waits for a server to appear on a port in the status listing.
type Poller struct {
	Port        int
	SessionName string
	Policy      Policy
}

// Wait polls the status function until a line mentioning the poller's port
// shows up or the attempt bound is exhausted. The first matching line in
// listing order wins and polling stops immediately. A failing status command
// counts as a no-match attempt rather than aborting the wait; the server may
// simply not be up yet. Exhaustion is reported through the boolean, never as
// an error.
func (p Poller) Wait(status StatusFunc) (Endpoint, bool) {
	policy := p.Policy.withDefaults()

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		output, err := status()
		if err != nil {
			log.Debug().
				Int("attempt", attempt).
				Err(err).
				Msg("status command failed")
		}

		line, ok := MatchLine(output, p.Port)
		observability.RecordReadinessAttempt(p.SessionName, ok)
		if ok {
			return Endpoint{
				Port:        p.Port,
				SessionName: p.SessionName,
				StatusLine:  line,
				Token:       ExtractToken(line),
			}, true
		}

		if attempt < policy.MaxAttempts {
			policy.Sleep(policy.Interval)
		}
	}

	return Endpoint{Port: p.Port, SessionName: p.SessionName}, false
}

// MatchLine returns the first line of output containing the literal substring
// ":<port>/". Lines after the first match are ignored.
func MatchLine(output string, port int) (string, bool) {
	needle := fmt.Sprintf(":%d/", port)
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, needle) {
			return line, true
		}
	}
	return "", false
}

// ExtractToken pulls the value of a token=<value> segment out of a status
// line, where the value runs to the next whitespace. Returns "" when the line
// carries no token.
func ExtractToken(line string) string {
	m := tokenPattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}
