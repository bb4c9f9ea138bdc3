// Package stomp implements the minimal subset of the STOMP text frame
// grammar the feed speaks: CONNECT/CONNECTED handshake, SUBSCRIBE, and
// MESSAGE delivery. Frames travel as strings inside SockJS array frames,
// one frame per inner string.
package stomp

import (
	"fmt"
	"strings"
)

// Commands observed or emitted by this client.
const (
	CmdConnect   = "CONNECT"
	CmdConnected = "CONNECTED"
	CmdSubscribe = "SUBSCRIBE"
	CmdMessage   = "MESSAGE"
)

// Frame is one STOMP frame: COMMAND, header lines, blank line, body,
// terminated by a NUL byte on the wire.
type Frame struct {
	Command string
	Headers []Header
	Body    string
}

// Header preserves declaration order; STOMP clients conventionally keep the
// first occurrence of a repeated header.
type Header struct {
	Name  string
	Value string
}

// Header returns the first value for name, or "" when absent.
func (f *Frame) Header(name string) string {
	for _, h := range f.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// Marshal renders the frame in wire form: COMMAND\nname:value\n...\n\nBODY\x00.
func (f *Frame) Marshal() string {
	var b strings.Builder
	b.WriteString(f.Command)
	b.WriteByte('\n')
	for _, h := range f.Headers {
		b.WriteString(h.Name)
		b.WriteByte(':')
		b.WriteString(h.Value)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(f.Body)
	b.WriteByte(0)
	return b.String()
}

// Parse decodes one wire frame. The trailing NUL is optional on input; some
// relays strip it before the SockJS layer re-encodes the string.
func Parse(raw string) (*Frame, error) {
	raw = strings.TrimSuffix(raw, "\x00")
	head, body, found := strings.Cut(raw, "\n\n")
	if !found {
		return nil, fmt.Errorf("stomp: frame has no header/body separator")
	}
	lines := strings.Split(head, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("stomp: frame has no command")
	}
	frame := &Frame{Command: strings.TrimSpace(lines[0]), Body: body}
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("stomp: malformed header line %q", line)
		}
		frame.Headers = append(frame.Headers, Header{Name: name, Value: value})
	}
	return frame, nil
}

// NewConnect builds the handshake frame sent after the transport opens.
func NewConnect(host string) *Frame {
	return &Frame{
		Command: CmdConnect,
		Headers: []Header{
			{Name: "accept-version", Value: "1.1,1.2"},
			{Name: "heart-beat", Value: "0,0"},
			{Name: "host", Value: host},
		},
	}
}

// NewSubscribe builds a subscription frame for one destination topic.
func NewSubscribe(id, destination string) *Frame {
	return &Frame{
		Command: CmdSubscribe,
		Headers: []Header{
			{Name: "id", Value: id},
			{Name: "destination", Value: destination},
		},
	}
}
