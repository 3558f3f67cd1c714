package password

import (
	"errors"
	"strings"
	"testing"
)

func TestHashRoundTrip(t *testing.T) {
	digest := Hash("correct-horse")
	if len(digest) != 128 {
		t.Fatalf("expected a 128-hex digest, got %d chars", len(digest))
	}
	if digest != Hash("correct-horse") {
		t.Fatal("hashing is not deterministic")
	}

	ok, err := Verify("correct-horse", digest)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("password does not verify against its own digest")
	}

	ok, err = Verify("wrong-horse", digest)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestLegacyHashRoundTrip(t *testing.T) {
	digest := LegacyHash("correct-horse")
	if len(digest) != 64 {
		t.Fatalf("expected a 64-hex legacy digest, got %d chars", len(digest))
	}

	ok, err := Verify("correct-horse", digest)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("password does not verify against its legacy digest")
	}

	ok, err = Verify("wrong-horse", digest)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified against legacy digest")
	}
}

func TestDetectFormatThresholds(t *testing.T) {
	// Format sniffing is length-based; pin the exact thresholds.
	if format, err := DetectFormat(strings.Repeat("a", 64)); err != nil || format != FormatLegacy {
		t.Fatalf("64 chars: format=%v err=%v", format, err)
	}
	if format, err := DetectFormat(strings.Repeat("a", 128)); err != nil || format != FormatCurrent {
		t.Fatalf("128 chars: format=%v err=%v", format, err)
	}
	for _, n := range []int{0, 1, 63, 65, 127, 129} {
		if _, err := DetectFormat(strings.Repeat("a", n)); !errors.Is(err, ErrMalformedDigest) {
			t.Fatalf("%d chars: expected ErrMalformedDigest, got %v", n, err)
		}
	}
}

func TestNeedsUpgrade(t *testing.T) {
	if upgrade, err := NeedsUpgrade(LegacyHash("p")); err != nil || !upgrade {
		t.Fatalf("legacy digest: upgrade=%v err=%v", upgrade, err)
	}
	if upgrade, err := NeedsUpgrade(Hash("p")); err != nil || upgrade {
		t.Fatalf("current digest: upgrade=%v err=%v", upgrade, err)
	}
	if _, err := NeedsUpgrade("short"); !errors.Is(err, ErrMalformedDigest) {
		t.Fatalf("malformed digest: expected ErrMalformedDigest, got %v", err)
	}
}

func TestVerifyMalformedStoredDigest(t *testing.T) {
	if _, err := Verify("p", "deadbeef"); !errors.Is(err, ErrMalformedDigest) {
		t.Fatalf("expected ErrMalformedDigest, got %v", err)
	}
}

func TestGenerate(t *testing.T) {
	generated, err := Generate(24)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(generated) != 24 {
		t.Fatalf("expected 24 chars, got %d", len(generated))
	}
	for _, r := range generated {
		if !strings.ContainsRune(generateCharset, r) {
			t.Fatalf("generated password contains %q outside the charset", r)
		}
	}

	other, err := Generate(24)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if generated == other {
		t.Fatal("two generated passwords are identical")
	}
}
