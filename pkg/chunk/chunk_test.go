package chunk

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/iotaledger/access-server/pkg/trytes"
)

func TestSplitJoinRoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte("x"),
		[]byte(`{"policy_id":"p1","k":"v"}`),
		bytes.Repeat([]byte("policy-data-"), 1000),
	}
	for _, p := range payloads {
		fragments, err := Split(p, 64)
		if err != nil {
			t.Fatalf("Split error: %v", err)
		}
		for _, f := range fragments {
			if len(f) > 64 {
				t.Fatalf("fragment exceeds max size: %d", len(f))
			}
		}
		got, err := Join(fragments)
		if err != nil {
			t.Fatalf("Join error: %v", err)
		}
		if !bytes.Equal(got, p) {
			t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(p))
		}
	}
}

func TestSplitEmptyPayload(t *testing.T) {
	if _, err := Split(nil, 64); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestSplitDefaultFragmentSize(t *testing.T) {
	p := bytes.Repeat([]byte("a"), 3*DefaultMaxFragmentSize)
	fragments, err := Split(p, 0)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}
	// 3*2187 bytes encode to 6*2187 trytes, exactly six full fragments.
	if len(fragments) != 6 {
		t.Fatalf("expected 6 fragments, got %d", len(fragments))
	}
}

func TestJoinSkipsFillerFragments(t *testing.T) {
	p := []byte(`{"k":"v"}`)
	fragments, err := Split(p, 8)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}
	padded := append(fragments, strings.Repeat("9", 8), "9 9\n9")
	got, err := Join(padded)
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if !bytes.Equal(got, p) {
		t.Fatalf("expected filler fragments to be dropped, got %q", got)
	}
}

func TestJoinDropsOddTrailingCharacter(t *testing.T) {
	p := []byte("hello")
	enc := trytes.FromASCII(p)
	// A stray trailing tryte makes the total length odd; Join must drop it
	// and still decode the original payload.
	got, err := Join([]string{enc + "A"})
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if !bytes.Equal(got, p) {
		t.Fatalf("expected %q, got %q", p, got)
	}
}

func TestDigestOrderSensitive(t *testing.T) {
	d1 := json.RawMessage(`{"policy_id":"p1"}`)
	d2 := json.RawMessage(`{"policy_id":"p2"}`)

	a, err := Digest([]json.RawMessage{d1, d2})
	if err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	b, err := Digest([]json.RawMessage{d2, d1})
	if err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if a == b {
		t.Fatalf("expected order-sensitive digest")
	}
}

func TestDigestDeterministic(t *testing.T) {
	docs := []json.RawMessage{
		json.RawMessage(`{"b":2,"a":1}`),
		json.RawMessage(`{"x":[1,2,3]}`),
	}
	a, err := Digest(docs)
	if err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	b, err := Digest(docs)
	if err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if a != b {
		t.Fatalf("expected deterministic digest, got %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "0x") || len(a) != 66 {
		t.Fatalf("unexpected digest format: %s", a)
	}
}

func TestDigestKeyOrderInsideDocumentIrrelevant(t *testing.T) {
	a, err := Digest([]json.RawMessage{json.RawMessage(`{"b":2,"a":1}`)})
	if err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	b, err := Digest([]json.RawMessage{json.RawMessage(`{"a":1,"b":2}`)})
	if err != nil {
		t.Fatalf("Digest error: %v", err)
	}
	if a != b {
		t.Fatalf("canonicalization should make key order irrelevant")
	}
}

func TestDigestRejectsInvalidJSON(t *testing.T) {
	if _, err := Digest([]json.RawMessage{json.RawMessage(`{"a":`)}); err == nil {
		t.Fatalf("expected error for invalid document")
	}
}
