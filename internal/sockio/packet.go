package sockio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EngineType is the Engine.IO v4 packet type (first byte of every frame).
type EngineType byte

const (
	EngineOpen    EngineType = '0'
	EngineClose   EngineType = '1'
	EnginePing    EngineType = '2'
	EnginePong    EngineType = '3'
	EngineMessage EngineType = '4'
	EngineUpgrade EngineType = '5'
	EngineNoop    EngineType = '6'
)

// PacketType is the Socket.IO v5 packet type carried inside an Engine.IO message.
type PacketType byte

const (
	PacketConnect      PacketType = '0'
	PacketDisconnect   PacketType = '1'
	PacketEvent        PacketType = '2'
	PacketAck          PacketType = '3'
	PacketConnectError PacketType = '4'
	PacketBinaryEvent  PacketType = '5'
	PacketBinaryAck    PacketType = '6'
)

const defaultNamespace = "/"

var ErrMalformedPacket = errors.New("malformed packet")

// Packet is a decoded Socket.IO packet.
type Packet struct {
	Type        PacketType
	Namespace   string
	AckID       int
	HasAck      bool
	Attachments int
	Data        json.RawMessage
}

// DecodeEngine splits a text frame into its Engine.IO type and body.
func DecodeEngine(frame []byte) (EngineType, []byte, error) {
	if len(frame) == 0 {
		return 0, nil, fmt.Errorf("%w: empty frame", ErrMalformedPacket)
	}
	t := EngineType(frame[0])
	if t < EngineOpen || t > EngineNoop {
		return 0, nil, fmt.Errorf("%w: engine type %q", ErrMalformedPacket, frame[0])
	}
	return t, frame[1:], nil
}

func EncodeEngine(t EngineType, body string) string {
	return string(rune(t)) + body
}

// DecodePacket parses the body of an Engine.IO message frame:
// <type>[<attachments>-][<namespace>,][<ack id>][<json>]
func DecodePacket(body []byte) (Packet, error) {
	if len(body) == 0 {
		return Packet{}, fmt.Errorf("%w: empty body", ErrMalformedPacket)
	}
	p := Packet{Type: PacketType(body[0]), Namespace: defaultNamespace}
	if p.Type < PacketConnect || p.Type > PacketBinaryAck {
		return Packet{}, fmt.Errorf("%w: packet type %q", ErrMalformedPacket, body[0])
	}
	rest := string(body[1:])

	if p.Type == PacketBinaryEvent || p.Type == PacketBinaryAck {
		dash := strings.IndexByte(rest, '-')
		if dash <= 0 {
			return Packet{}, fmt.Errorf("%w: missing attachment count", ErrMalformedPacket)
		}
		n, err := strconv.Atoi(rest[:dash])
		if err != nil {
			return Packet{}, fmt.Errorf("%w: attachment count: %v", ErrMalformedPacket, err)
		}
		p.Attachments = n
		rest = rest[dash+1:]
	}

	if strings.HasPrefix(rest, "/") {
		comma := strings.IndexByte(rest, ',')
		if comma < 0 {
			p.Namespace = rest
			rest = ""
		} else {
			p.Namespace = rest[:comma]
			rest = rest[comma+1:]
		}
	}

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i > 0 {
		id, err := strconv.Atoi(rest[:i])
		if err != nil {
			return Packet{}, fmt.Errorf("%w: ack id: %v", ErrMalformedPacket, err)
		}
		p.AckID, p.HasAck = id, true
		rest = rest[i:]
	}

	if rest != "" {
		if !json.Valid([]byte(rest)) {
			return Packet{}, fmt.Errorf("%w: invalid json payload", ErrMalformedPacket)
		}
		p.Data = json.RawMessage(rest)
	}
	return p, nil
}

// Encode renders p as a complete Engine.IO message frame.
func (p Packet) Encode() string {
	var b strings.Builder
	b.WriteByte(byte(EngineMessage))
	b.WriteByte(byte(p.Type))
	if p.Type == PacketBinaryEvent || p.Type == PacketBinaryAck {
		b.WriteString(strconv.Itoa(p.Attachments))
		b.WriteByte('-')
	}
	if p.Namespace != "" && p.Namespace != defaultNamespace {
		b.WriteString(p.Namespace)
		b.WriteByte(',')
	}
	if p.HasAck {
		b.WriteString(strconv.Itoa(p.AckID))
	}
	if len(p.Data) > 0 {
		b.Write(p.Data)
	}
	return b.String()
}

// EventPacket builds an EVENT packet for name with a single payload argument.
// A nil payload sends the event name alone.
func EventPacket(namespace, name string, payload any) (Packet, error) {
	if strings.TrimSpace(name) == "" {
		return Packet{}, errors.New("event name required")
	}
	items := []any{name}
	if payload != nil {
		items = append(items, payload)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return Packet{}, fmt.Errorf("marshal event %s: %w", name, err)
	}
	return Packet{Type: PacketEvent, Namespace: namespace, Data: raw}, nil
}

// EventArgs splits an EVENT packet into its name and raw arguments.
func (p Packet) EventArgs() (string, []json.RawMessage, error) {
	if p.Type != PacketEvent {
		return "", nil, fmt.Errorf("%w: not an event packet", ErrMalformedPacket)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(p.Data, &items); err != nil {
		return "", nil, fmt.Errorf("%w: event body: %v", ErrMalformedPacket, err)
	}
	if len(items) == 0 {
		return "", nil, fmt.Errorf("%w: event without name", ErrMalformedPacket)
	}
	var name string
	if err := json.Unmarshal(items[0], &name); err != nil {
		return "", nil, fmt.Errorf("%w: event name: %v", ErrMalformedPacket, err)
	}
	return name, items[1:], nil
}
