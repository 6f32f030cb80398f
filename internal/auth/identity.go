package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Identity is the user identifier handed to every core operation. Durable
// identities come from an authenticated session and survive across requests;
// ephemeral identities come from the anonymous cookie and are never persisted.
type Identity struct {
	ID        string
	Ephemeral bool
}

func DurableIdentity(id string) Identity {
	return Identity{ID: id}
}

func NewEphemeralIdentity() Identity {
	return Identity{ID: "anon_" + uuid.NewString(), Ephemeral: true}
}

// SignAnonID produces the cookie value "<id>.<hmac>" so a tampered anonymous
// id is rejected instead of trusted.
func SignAnonID(secret, id string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	return id + "." + hex.EncodeToString(mac.Sum(nil))
}

// VerifyAnonCookie returns the embedded anonymous id if the signature checks out.
func VerifyAnonCookie(secret, value string) (string, bool) {
	idx := strings.LastIndex(value, ".")
	if idx <= 0 {
		return "", false
	}
	id := value[:idx]
	if !strings.HasPrefix(id, "anon_") {
		return "", false
	}
	expected := SignAnonID(secret, id)
	if !hmac.Equal([]byte(expected), []byte(value)) {
		return "", false
	}
	return id, true
}
