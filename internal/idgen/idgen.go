// Package idgen generates the three kinds of identifiers the core needs:
// room codes, participant ids, and the per-room host bearer token. It mirrors
// the teacher's Idgen type (a locker-guarded generator), generalized to the
// room-code alphabet and retry-on-collision rule from spec.md §4.6.
package idgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoomCodeAlphabet excludes visually ambiguous characters (no I, O, 0, 1),
// per spec.md §4.6.
const RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomCodeLength is the canonical generated length; join-time validation
// still accepts any length in [4,10] per spec.md §3.1.
const RoomCodeLength = 6

// HostParticipantID is the literal, fixed id of the host participant in
// every room, per spec.md §3.2.
const HostParticipantID = "host"

// Generator issues room codes (with collision-retry against a predicate),
// participant ids, and signed host tokens.
type Generator struct {
	signingKey []byte

	mu      sync.Mutex
	rnd     func(n int) (string, error)
	uuidNew func() uuid.UUID
}

// New builds a Generator. signingKey authenticates host tokens; it never
// leaves the process and is never embedded in any client-visible payload.
func New(signingKey []byte) *Generator {
	return &Generator{
		signingKey: signingKey,
		rnd:        randomAlphabetString,
		uuidNew:    uuid.New,
	}
}

// NewRoomCode draws a random code from RoomCodeAlphabet and retries while
// exists reports a collision, per spec.md §4.6 ("retry on collision").
func (g *Generator) NewRoomCode(exists func(code string) bool) (string, error) {
	for attempt := 0; attempt < 64; attempt++ {
		code, err := g.rnd(RoomCodeLength)
		if err != nil {
			return "", fmt.Errorf("idgen: generate room code: %w", err)
		}
		if !exists(code) {
			return code, nil
		}
	}
	return "", fmt.Errorf("idgen: could not find a free room code after 64 attempts")
}

// NewParticipantID returns a 128-bit random participant id (spec.md
// glossary "Host token" footnote on participant ids).
func (g *Generator) NewParticipantID() string {
	return g.uuidNew().String()
}

// hostClaims is embedded in the signed token; it is never decoded by
// clients, who treat the token as an opaque bearer secret per spec.md §3.1.
type hostClaims struct {
	RoomCode string `json:"room_code"`
	jwt.RegisteredClaims
}

// NewHostToken mints an opaque-to-clients bearer secret scoped to roomCode.
// It's a signed JWT rather than a bare random string so the claims travel
// with the token and a future caller can decode {roomCode, sub} without a
// side lookup, but the room actor never re-verifies the signature: the
// minted string is stored verbatim as Room.HostToken and every host-gated
// transition checks it with a plain equality compare (checkHostAuth in
// internal/roomstate), the same as any other bearer-secret design. The
// token carries no random claim: it is an HMAC-SHA256 signature over the
// room code under g.signingKey, so it cannot be guessed or forged without
// that key, and the equality compare alone already rejects forged and
// cross-room tokens; decoding the claims would add nothing.
func (g *Generator) NewHostToken(roomCode string) (string, error) {
	claims := hostClaims{
		RoomCode: roomCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: HostParticipantID,
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(g.signingKey)
	if err != nil {
		return "", fmt.Errorf("idgen: sign host token: %w", err)
	}
	return signed, nil
}

func randomAlphabetString(n int) (string, error) {
	alphabetLen := big.NewInt(int64(len(RoomCodeAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		out[i] = RoomCodeAlphabet[idx.Int64()]
	}
	return string(out), nil
}
