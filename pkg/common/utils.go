package common

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// CodePrefix is the agency brand prefix carried by every referral code.
const CodePrefix = "SULTANAH"

// NamePrefix derives the 3-character owner segment of a referral code from a
// display name: first token, uppercased, truncated to 3 chars, padded with X
// when shorter. Non-alphanumeric characters are stripped first.
func NamePrefix(displayName string) string {
	token := strings.TrimSpace(displayName)
	if i := strings.IndexAny(token, " \t"); i >= 0 {
		token = token[:i]
	}

	var b strings.Builder
	for _, r := range strings.ToUpper(token) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == 3 {
			break
		}
	}
	prefix := b.String()
	for len(prefix) < 3 {
		prefix += "X"
	}
	return prefix
}

// RandomSuffix returns a random 4-digit code suffix. The package-level source
// keeps concurrent draws distinct; a per-call time seed would repeat within a
// nanosecond.
func RandomSuffix() string {
	return fmt.Sprintf("%04d", rand.Intn(10000))
}

// TimestampSuffix returns a suffix from the low-order digits of the current
// unix time in nanoseconds. Used as the deterministic fallback when the random
// draw keeps colliding.
func TimestampSuffix() string {
	ns := strconv.FormatInt(time.Now().UnixNano(), 10)
	return ns[len(ns)-4:]
}

// FormatCode assembles the full referral code, e.g. SULTANAH-AHM4821.
func FormatCode(namePrefix, suffix string) string {
	return fmt.Sprintf("%s-%s%s", CodePrefix, namePrefix, suffix)
}
