package socketio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PacketType covers the subset of the socket.io/engine.io grammar the
// whiteboard protocol uses: event and ack packets plus liveness probes.
type PacketType byte

const (
	PacketPing  PacketType = '2' // engine.io ping, payload optional
	PacketPong  PacketType = '3' // engine.io pong, payload optional
	PacketEvent PacketType = 'E' // "42<ack>[event,args...]"
	PacketAck   PacketType = 'A' // "43<ack>[args...]"
)

// Packet is one decoded text frame.
//
// For events, Event holds the first array element and Args the rest.
// AckID is -1 when the packet carries no acknowledgment id.
type Packet struct {
	Type      PacketType
	Namespace string
	AckID     int64
	Event     string
	Args      []json.RawMessage
}

var ErrMalformed = errors.New("socketio: malformed packet")

// Arg decodes the i-th argument into v.
func (p Packet) Arg(i int, v any) error {
	if i >= len(p.Args) {
		return fmt.Errorf("socketio: packet has %d args, want index %d", len(p.Args), i)
	}
	return json.Unmarshal(p.Args[i], v)
}

// Event builds an event packet. ackID < 0 means no ack requested.
func Event(event string, ackID int64, args ...any) (Packet, error) {
	p := Packet{Type: PacketEvent, AckID: ackID, Event: event}
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return Packet{}, err
		}
		p.Args = append(p.Args, raw)
	}
	return p, nil
}

// Ack builds the reply to an event that carried an ack id.
func Ack(ackID int64, args ...any) (Packet, error) {
	p := Packet{Type: PacketAck, AckID: ackID}
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return Packet{}, err
		}
		p.Args = append(p.Args, raw)
	}
	return p, nil
}

// Ping builds a liveness probe carrying an optional payload.
func Ping(payload any) (Packet, error) { return probe(PacketPing, payload) }

// Pong builds the probe reply.
func Pong(payload any) (Packet, error) { return probe(PacketPong, payload) }

func probe(t PacketType, payload any) (Packet, error) {
	p := Packet{Type: t, AckID: -1}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Packet{}, err
		}
		p.Args = []json.RawMessage{raw}
	}
	return p, nil
}

// Encode renders the packet as a text frame.
func Encode(p Packet) ([]byte, error) {
	switch p.Type {
	case PacketPing, PacketPong:
		out := []byte{byte(p.Type)}
		if len(p.Args) > 0 {
			out = append(out, p.Args[0]...)
		}
		return out, nil
	case PacketEvent:
		if p.Event == "" {
			return nil, ErrMalformed
		}
		var b strings.Builder
		b.WriteString("42")
		writeHead(&b, p)
		ev, err := json.Marshal(p.Event)
		if err != nil {
			return nil, err
		}
		b.WriteByte('[')
		b.Write(ev)
		for _, a := range p.Args {
			b.WriteByte(',')
			b.Write(a)
		}
		b.WriteByte(']')
		return []byte(b.String()), nil
	case PacketAck:
		if p.AckID < 0 {
			return nil, ErrMalformed
		}
		var b strings.Builder
		b.WriteString("43")
		writeHead(&b, p)
		b.WriteByte('[')
		for i, a := range p.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			b.Write(a)
		}
		b.WriteByte(']')
		return []byte(b.String()), nil
	default:
		return nil, ErrMalformed
	}
}

func writeHead(b *strings.Builder, p Packet) {
	if p.Namespace != "" {
		b.WriteString(p.Namespace)
		b.WriteByte(',')
	}
	if p.AckID >= 0 {
		b.WriteString(strconv.FormatInt(p.AckID, 10))
	}
}

// Decode parses a text frame. Frames outside the supported grammar return
// ErrMalformed; callers are expected to log and skip them.
func Decode(data []byte) (Packet, error) {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return Packet{}, ErrMalformed
	}
	switch {
	case s[0] == '2' && !strings.HasPrefix(s, "42"):
		return decodeProbe(PacketPing, s[1:])
	case s[0] == '3':
		return decodeProbe(PacketPong, s[1:])
	case strings.HasPrefix(s, "42"):
		return decodeArrayPacket(PacketEvent, s[2:])
	case strings.HasPrefix(s, "43"):
		return decodeArrayPacket(PacketAck, s[2:])
	default:
		return Packet{}, ErrMalformed
	}
}

func decodeProbe(t PacketType, rest string) (Packet, error) {
	p := Packet{Type: t, AckID: -1}
	if rest != "" {
		if !json.Valid([]byte(rest)) {
			return Packet{}, ErrMalformed
		}
		p.Args = []json.RawMessage{json.RawMessage(rest)}
	}
	return p, nil
}

// decodeArrayPacket handles "[/nsp,][ack]<json array>" after the type code.
func decodeArrayPacket(t PacketType, payload string) (Packet, error) {
	p := Packet{Type: t, AckID: -1}
	// optional comma directly after the type code, e.g. "43,5[]"
	payload = strings.TrimPrefix(payload, ",")
	if strings.HasPrefix(payload, "/") {
		idx := strings.IndexByte(payload, ',')
		if idx <= 0 {
			return Packet{}, ErrMalformed
		}
		p.Namespace = payload[:idx]
		payload = payload[idx+1:]
	}
	if i := strings.IndexByte(payload, '['); i > 0 {
		pre := payload[:i]
		if !isDigits(pre) {
			return Packet{}, ErrMalformed
		}
		n, err := strconv.ParseInt(pre, 10, 64)
		if err != nil {
			return Packet{}, ErrMalformed
		}
		p.AckID = n
		payload = payload[i:]
	}
	if !strings.HasPrefix(payload, "[") {
		return Packet{}, ErrMalformed
	}
	var args []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &args); err != nil {
		return Packet{}, ErrMalformed
	}
	if t == PacketEvent {
		if len(args) == 0 {
			return Packet{}, ErrMalformed
		}
		if err := json.Unmarshal(args[0], &p.Event); err != nil || p.Event == "" {
			return Packet{}, ErrMalformed
		}
		p.Args = args[1:]
	} else {
		p.Args = args
	}
	return p, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
