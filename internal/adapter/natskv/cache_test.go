package natskv

import "testing"

func TestEncodeKey(t *testing.T) {
	tests := map[string]string{
		"preview:abc-123:4":    "preview.abc-123.4",
		"preview:a b":          "preview.a=20b",
		"preview:p.1":          "preview.p=2E1",
		"preview:x=y":          "preview.x=3Dy",
		"plain_key/with-slash": "plain_key/with-slash",
	}
	for in, want := range tests {
		if got := EncodeKey(in); got != want {
			t.Errorf("EncodeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEncodeKeyIsInjective(t *testing.T) {
	a := EncodeKey("preview:a.b")
	b := EncodeKey("preview:a:b")
	if a == b {
		t.Fatalf("distinct keys encoded identically: %q", a)
	}
}
