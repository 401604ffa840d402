package socketio

import (
	"encoding/json"
	"testing"
)

func TestDecodeEventNoAck(t *testing.T) {
	p, err := Decode([]byte(`42["chat_message",{"message":"hi"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if p.Type != PacketEvent || p.Event != "chat_message" || p.AckID != -1 || len(p.Args) != 1 {
		t.Fatalf("unexpected: %+v", p)
	}
}

func TestDecodeEventWithAck(t *testing.T) {
	p, err := Decode([]byte(`4217["join_session",{"session_id":"s1","user_id":"u1"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if p.Event != "join_session" || p.AckID != 17 {
		t.Fatalf("unexpected: %+v", p)
	}
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := p.Arg(0, &body); err != nil || body.SessionID != "s1" {
		t.Fatalf("arg decode: %v %+v", err, body)
	}
}

func TestDecodeEventWithNamespaceAndAck(t *testing.T) {
	p, err := Decode([]byte(`42/board,9["canvas_update",{"type":"clear"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if p.Namespace != "/board" || p.AckID != 9 || p.Event != "canvas_update" {
		t.Fatalf("unexpected: %+v", p)
	}
}

func TestDecodeAck(t *testing.T) {
	p, err := Decode([]byte(`435[{"ok":true}]`))
	if err != nil {
		t.Fatal(err)
	}
	if p.Type != PacketAck || p.AckID != 5 || len(p.Args) != 1 {
		t.Fatalf("unexpected: %+v", p)
	}
}

func TestDecodeProbes(t *testing.T) {
	p, err := Decode([]byte(`2{"timestamp":"2026-01-01T00:00:00Z"}`))
	if err != nil || p.Type != PacketPing {
		t.Fatalf("ping: %v %+v", err, p)
	}
	p, err = Decode([]byte("3"))
	if err != nil || p.Type != PacketPong || len(p.Args) != 0 {
		t.Fatalf("pong: %v %+v", err, p)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, in := range []string{"", "42", "42[]", "42[123]", "44[\"x\"]", "42abc[\"x\"]", "hello"} {
		if _, err := Decode([]byte(in)); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestEncodeDecodeEventRoundTrip(t *testing.T) {
	orig, err := Event("canvas_update", 3, map[string]any{"type": "clear", "data": map[string]any{}})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := Encode(orig)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.Event != orig.Event || got.AckID != orig.AckID || len(got.Args) != len(orig.Args) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, orig)
	}
}

func TestEncodeAckShape(t *testing.T) {
	p, err := Ack(7, map[string]bool{"ok": true})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := Encode(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `437[{"ok":true}]` {
		t.Fatalf("unexpected encoding: %s", raw)
	}
}

func TestEncodePingPayload(t *testing.T) {
	p, err := Ping(map[string]string{"timestamp": "t"})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := Encode(p)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(raw)
	if err != nil || got.Type != PacketPing {
		t.Fatalf("decode: %v %+v", err, got)
	}
	var hb map[string]string
	if err := json.Unmarshal(got.Args[0], &hb); err != nil || hb["timestamp"] != "t" {
		t.Fatalf("payload: %v %v", err, hb)
	}
}
