package feed

import (
	"fmt"
	"math/rand"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// SockJS frame alphabet on the inbound side. Everything else is noise the
// receive loop logs at low severity and ignores.
type frameKind int

const (
	frameOpen frameKind = iota
	frameHeartbeat
	frameClose
	frameArray
	frameOther
)

var sockjsJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// classifyFrame maps a raw transport message to its SockJS frame kind.
func classifyFrame(data []byte) frameKind {
	if len(data) == 0 {
		return frameOther
	}
	switch {
	case len(data) == 1 && data[0] == 'o':
		return frameOpen
	case len(data) == 1 && data[0] == 'h':
		return frameHeartbeat
	case len(data) >= 2 && data[0] == 'c' && data[1] == '[':
		return frameClose
	case len(data) >= 2 && data[0] == 'a' && data[1] == '[':
		return frameArray
	default:
		return frameOther
	}
}

// innerMessages unpacks an "a[...]" frame into its inner message strings,
// each of which is one messaging-layer frame.
func innerMessages(data []byte) ([]string, error) {
	var msgs []string
	if err := sockjsJSON.Unmarshal(data[1:], &msgs); err != nil {
		return nil, fmt.Errorf("sockjs array frame: %w", err)
	}
	return msgs, nil
}

// encodeOutbound wraps one messaging-layer frame in the client-to-server
// SockJS encoding: a JSON array of strings.
func encodeOutbound(frame string) ([]byte, error) {
	return sockjsJSON.Marshal([]string{frame})
}

const sessionIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// sessionPath builds the session segment of the endpoint URL: a random
// 3-digit server id and an 8-character session id, fresh per attempt.
func sessionPath() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%03d/", rand.Intn(1000))
	for i := 0; i < 8; i++ {
		b.WriteByte(sessionIDAlphabet[rand.Intn(len(sessionIDAlphabet))])
	}
	return b.String()
}
