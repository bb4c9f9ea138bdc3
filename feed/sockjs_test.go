package feed

import (
	"strings"
	"testing"
)

func TestClassifyFrame(t *testing.T) {
	tests := []struct {
		data string
		want frameKind
	}{
		{"o", frameOpen},
		{"h", frameHeartbeat},
		{`c[3000,"Go away!"]`, frameClose},
		{`a["MESSAGE\n\n\u0000"]`, frameArray},
		{"", frameOther},
		{"x", frameOther},
		{"c", frameOther}, // close frame requires the payload array
		{"hh", frameOther},
	}
	for _, tt := range tests {
		if got := classifyFrame([]byte(tt.data)); got != tt.want {
			t.Errorf("classifyFrame(%q) = %v, want %v", tt.data, got, tt.want)
		}
	}
}

func TestInnerMessages(t *testing.T) {
	msgs, err := innerMessages([]byte(`a["first\n\nbody\u0000","second\n\n\u0000"]`))
	if err != nil {
		t.Fatalf("innerMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0] != "first\n\nbody\x00" {
		t.Errorf("first message = %q", msgs[0])
	}
}

func TestInnerMessagesMalformed(t *testing.T) {
	if _, err := innerMessages([]byte(`a[not json`)); err == nil {
		t.Error("expected error for malformed array frame")
	}
}

func TestEncodeOutbound(t *testing.T) {
	out, err := encodeOutbound("CONNECT\n\n\x00")
	if err != nil {
		t.Fatalf("encodeOutbound failed: %v", err)
	}
	// Round trip through the array decoder.
	msgs, err := innerMessages(append([]byte("a"), out...))
	if err != nil {
		t.Fatalf("decode of encoded frame failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0] != "CONNECT\n\n\x00" {
		t.Errorf("round trip = %q", msgs)
	}
}

func TestSessionPath(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		p := sessionPath()
		parts := strings.Split(p, "/")
		if len(parts) != 2 {
			t.Fatalf("sessionPath %q should have two segments", p)
		}
		if len(parts[0]) != 3 || len(parts[1]) != 8 {
			t.Errorf("sessionPath %q segment lengths wrong", p)
		}
		seen[p] = true
	}
	if len(seen) < 2 {
		t.Error("sessionPath should vary between calls")
	}
}
