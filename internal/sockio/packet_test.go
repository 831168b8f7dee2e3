package sockio

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeEngine(t *testing.T) {
	typ, body, err := DecodeEngine([]byte(`0{"sid":"abc"}`))
	if err != nil {
		t.Fatalf("DecodeEngine: %v", err)
	}
	if typ != EngineOpen || string(body) != `{"sid":"abc"}` {
		t.Fatalf("unexpected decode: %q %q", rune(typ), body)
	}
	for _, bad := range []string{"", "9", "x"} {
		if _, _, err := DecodeEngine([]byte(bad)); !errors.Is(err, ErrMalformedPacket) {
			t.Fatalf("DecodeEngine(%q): expected ErrMalformedPacket, got %v", bad, err)
		}
	}
}

func TestDecodePacket(t *testing.T) {
	cases := []struct {
		in     string
		typ    PacketType
		nsp    string
		ack    int
		hasAck bool
		data   string
	}{
		{in: `0`, typ: PacketConnect, nsp: "/"},
		{in: `0{"sid":"x"}`, typ: PacketConnect, nsp: "/", data: `{"sid":"x"}`},
		{in: `2["boardState","8/8/8/8/8/8/8/8 w - - 0 1"]`, typ: PacketEvent, nsp: "/", data: `["boardState","8/8/8/8/8/8/8/8 w - - 0 1"]`},
		{in: `2/chess,["move",{"from":"e2","to":"e4"}]`, typ: PacketEvent, nsp: "/chess", data: `["move",{"from":"e2","to":"e4"}]`},
		{in: `212["playerRole","w"]`, typ: PacketEvent, nsp: "/", ack: 12, hasAck: true, data: `["playerRole","w"]`},
		{in: `1/chess,`, typ: PacketDisconnect, nsp: "/chess"},
		{in: `4{"message":"not allowed"}`, typ: PacketConnectError, nsp: "/", data: `{"message":"not allowed"}`},
		{in: `51-["upload",{"_placeholder":true,"num":0}]`, typ: PacketBinaryEvent, nsp: "/", data: `["upload",{"_placeholder":true,"num":0}]`},
	}
	for _, tc := range cases {
		p, err := DecodePacket([]byte(tc.in))
		if err != nil {
			t.Fatalf("DecodePacket(%q): %v", tc.in, err)
		}
		if p.Type != tc.typ || p.Namespace != tc.nsp || p.AckID != tc.ack || p.HasAck != tc.hasAck || string(p.Data) != tc.data {
			t.Fatalf("DecodePacket(%q) = %+v", tc.in, p)
		}
	}
}

func TestDecodePacket_Malformed(t *testing.T) {
	for _, bad := range []string{"", "7", `2["unterminated"`, "5x-[]"} {
		if _, err := DecodePacket([]byte(bad)); !errors.Is(err, ErrMalformedPacket) {
			t.Fatalf("DecodePacket(%q): expected ErrMalformedPacket, got %v", bad, err)
		}
	}
}

func TestPacketEncode(t *testing.T) {
	cases := []struct {
		p    Packet
		want string
	}{
		{Packet{Type: PacketConnect, Namespace: "/"}, "40"},
		{Packet{Type: PacketConnect, Namespace: "/chess"}, "40/chess,"},
		{Packet{Type: PacketDisconnect}, "41"},
		{Packet{Type: PacketEvent, Namespace: "/", AckID: 3, HasAck: true, Data: json.RawMessage(`["x"]`)}, `423["x"]`},
	}
	for _, tc := range cases {
		if got := tc.p.Encode(); got != tc.want {
			t.Fatalf("Encode(%+v) = %q, want %q", tc.p, got, tc.want)
		}
	}
}

func TestEventPacket_MovePayload(t *testing.T) {
	p, err := EventPacket("/", "move", map[string]string{"from": "e2"})
	if err != nil {
		t.Fatalf("EventPacket: %v", err)
	}
	if got := p.Encode(); got != `42["move",{"from":"e2"}]` {
		t.Fatalf("unexpected frame: %q", got)
	}

	decoded, err := DecodePacket([]byte(p.Encode()[1:]))
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	name, args, err := decoded.EventArgs()
	if err != nil {
		t.Fatalf("EventArgs: %v", err)
	}
	if name != "move" || len(args) != 1 || string(args[0]) != `{"from":"e2"}` {
		t.Fatalf("unexpected event: %s %s", name, args)
	}

	bare, err := EventPacket("/", "spectatorRole", nil)
	if err != nil {
		t.Fatalf("EventPacket: %v", err)
	}
	if got := bare.Encode(); got != `42["spectatorRole"]` {
		t.Fatalf("unexpected bare frame: %q", got)
	}
	if _, err := EventPacket("/", " ", nil); err == nil {
		t.Fatalf("expected error for empty event name")
	}
}

func TestEventArgs_Errors(t *testing.T) {
	if _, _, err := (Packet{Type: PacketConnect}).EventArgs(); err == nil {
		t.Fatalf("expected error for non-event packet")
	}
	if _, _, err := (Packet{Type: PacketEvent, Data: json.RawMessage(`[]`)}).EventArgs(); err == nil {
		t.Fatalf("expected error for nameless event")
	}
	if _, _, err := (Packet{Type: PacketEvent, Data: json.RawMessage(`[1]`)}).EventArgs(); err == nil {
		t.Fatalf("expected error for non-string event name")
	}
}
