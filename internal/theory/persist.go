package theory

import (
	"strings"

	"github.com/xtding233/binomial-theory/internal/bignum"
)

// InternalState serializes t and q as two space-separated exact decimals.
func (t *Theory) InternalState() string {
	return bignum.Encode(t.state.T) + " " + bignum.Encode(t.state.Q)
}

// SetInternalState restores t and q from InternalState output. Missing or
// unparseable tokens leave the matching variable at its current value.
func (t *Theory) SetInternalState(s string) {
	fields := strings.Fields(s)
	if len(fields) > 0 {
		if v, err := bignum.Parse(fields[0]); err == nil {
			t.state.T = v
		} else {
			t.logger.Debug("ignoring malformed t", "token", fields[0], "error", err)
		}
	}
	if len(fields) > 1 {
		if v, err := bignum.Parse(fields[1]); err == nil {
			t.state.Q = v
		} else {
			t.logger.Debug("ignoring malformed q", "token", fields[1], "error", err)
		}
	}
}

// PostPublish resets t and q after a publication.
func (t *Theory) PostPublish() {
	t.state.Reset()
	t.host.InvalidateTertiaryEquation()
}
