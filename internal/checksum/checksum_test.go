package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256 of the empty input.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different inputs share a digest")
	}
}

func TestFields_Boundaries(t *testing.T) {
	if Fields("ab", "c") == Fields("a", "bc") {
		t.Error("field boundary not part of the digest")
	}
	if Fields("a", "") == Fields("a") {
		t.Error("trailing empty field not part of the digest")
	}
	if Fields("x", "y") != Fields("x", "y") {
		t.Error("digest is not deterministic")
	}
}
