package fingerprint

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// MaxUserAgent bounds the user agent length that takes part in a fingerprint
// and that callers persist next to it.
const MaxUserAgent = 255

// Hasher derives stable, keyed identifiers for browser sessions and sign-ins.
// The key keeps identifiers unlinkable to raw client data for anyone without it.
type Hasher struct {
	key []byte
}

// NewHasher returns a Hasher keyed with secret. Secrets longer than the
// blake2b key limit are compressed first; an empty secret yields unkeyed
// hashes.
func NewHasher(secret string) *Hasher {
	key := []byte(secret)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &Hasher{key: key}
}

// Session identifies one browser session of a user.
func (h *Hasher) Session(userID int64, sessionID, ip, userAgent string) string {
	return h.sum(strconv.FormatInt(userID, 10), sessionID, ip, TruncateUserAgent(userAgent))
}

// Login identifies a client by address and user agent, independent of user.
func (h *Hasher) Login(ip, userAgent string) string {
	return h.sum(strings.TrimSpace(ip), TruncateUserAgent(userAgent))
}

func (h *Hasher) sum(parts ...string) string {
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// Only returned for keys above blake2b.Size, which NewHasher prevents.
		panic(err)
	}
	mac.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

// TruncateUserAgent trims ua and cuts it to MaxUserAgent bytes without
// splitting a UTF-8 sequence.
func TruncateUserAgent(ua string) string {
	ua = strings.TrimSpace(ua)
	if len(ua) <= MaxUserAgent {
		return ua
	}
	cut := MaxUserAgent
	for cut > 0 && !utf8Start(ua[cut]) {
		cut--
	}
	return ua[:cut]
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
