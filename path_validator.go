package quivc

import (
	"crypto/subtle"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/utils"
	"github.com/quivc/quivc/internal/wire"
)

type pathValidationState uint8

const (
	pathValidationNone pathValidationState = iota
	pathValidationValidating
	pathValidationValidated
	pathValidationFailed
)

// The pathValidator performs the PATH_CHALLENGE / PATH_RESPONSE exchange
// after a connection migration. The surrounding connection bounds the
// exchange with a timeout of three RTO periods.
type pathValidator struct {
	state pathValidationState

	challenge        [8]byte
	challengeQueued  bool
	responses        [][8]byte // answers to the peer's challenges
	rnd              *utils.Rand
	logger           utils.Logger
}

func newPathValidator(rnd *utils.Rand, logger utils.Logger) *pathValidator {
	return &pathValidator{rnd: rnd, logger: logger}
}

// Validate starts validating the current path by scheduling a
// PATH_CHALLENGE.
func (v *pathValidator) Validate() {
	v.rnd.Read(v.challenge[:])
	v.challengeQueued = true
	v.state = pathValidationValidating
}

// IsValidating says if a challenge is outstanding.
func (v *pathValidator) IsValidating() bool { return v.state == pathValidationValidating }

// IsValidated says if the path was validated.
func (v *pathValidator) IsValidated() bool { return v.state == pathValidationValidated }

// Interests registers the validator for both path frames.
func (v *pathValidator) Interests() []wire.FrameType {
	return []wire.FrameType{wire.FrameTypePathChallenge, wire.FrameTypePathResponse}
}

// HandleFrame answers the peer's challenges and matches responses against
// our outstanding challenge.
func (v *pathValidator) HandleFrame(_ protocol.EncryptionLevel, frame wire.Frame) error {
	switch f := frame.(type) {
	case *wire.PathChallengeFrame:
		v.responses = append(v.responses, f.Data)
	case *wire.PathResponseFrame:
		if v.state != pathValidationValidating {
			break
		}
		if subtle.ConstantTimeCompare(f.Data[:], v.challenge[:]) == 1 {
			v.logger.Debugf("path validated")
			v.state = pathValidationValidated
		}
	}
	return nil
}

// WillGenerateFrame says if a challenge or response is pending.
func (v *pathValidator) WillGenerateFrame(level protocol.EncryptionLevel) bool {
	if level != protocol.Encryption1RTT {
		return false
	}
	return len(v.responses) > 0 || v.challengeQueued
}

// GenerateFrame emits pending PATH_RESPONSE frames first, then the
// outstanding PATH_CHALLENGE.
func (v *pathValidator) GenerateFrame(level protocol.EncryptionLevel, _ uint16, maxSize protocol.ByteCount) wire.Frame {
	if level != protocol.Encryption1RTT || maxSize < 9 {
		return nil
	}
	if len(v.responses) > 0 {
		f := &wire.PathResponseFrame{Data: v.responses[0]}
		v.responses = v.responses[1:]
		return f
	}
	if v.challengeQueued {
		v.challengeQueued = false
		return &wire.PathChallengeFrame{Data: v.challenge}
	}
	return nil
}
