package protocol_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-go/weft/pkg/protocol"
	"github.com/vango-go/weft/pkg/vdom"
)

func TestEventRoundTrip(t *testing.T) {
	path := vdom.Root.Child(0, "").Child(2, "row-7")
	tests := []struct {
		name string
		ev   protocol.Event
	}{
		{"click", protocol.Event{Seq: 1, Path: path, Name: "click", Type: "click"}},
		{"input", protocol.Event{Seq: 2, Path: path, Name: "input", Type: "input", Immediate: true,
			Fields: map[string]any{"target.value": "hello"}}},
		{"mixed fields", protocol.Event{Seq: 300, Path: vdom.Root, Name: "pointer", Type: "mousemove",
			Fields: map[string]any{"clientX": 10.5, "clientY": -3.25, "buttons": 1, "shiftKey": false, "target.id": nil}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.DecodeEvent(protocol.EncodeEvent(&tt.ev))
			if err != nil {
				t.Fatalf("DecodeEvent() error = %v", err)
			}
			if diff := cmp.Diff(&tt.ev, got); diff != "" {
				t.Errorf("event mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEventEncodingIsDeterministic(t *testing.T) {
	ev := &protocol.Event{Name: "keydown", Type: "keydown", Fields: map[string]any{
		"key": "Enter", "ctrlKey": true, "altKey": false, "repeat": false, "code": "Enter",
	}}
	first := protocol.EncodeEvent(ev)
	for i := 0; i < 20; i++ {
		if !bytes.Equal(first, protocol.EncodeEvent(ev)) {
			t.Fatal("EncodeEvent() output depends on map order")
		}
	}
}

func TestEventVDOM(t *testing.T) {
	ev := &protocol.Event{Type: "input", Fields: map[string]any{"target.value": "42"}}
	got, err := ev.VDOM().String("target.value")
	if err != nil || got != "42" {
		t.Errorf("VDOM().String() = %q, %v; want 42", got, err)
	}
}

func TestDecodeEventErrors(t *testing.T) {
	valid := protocol.EncodeEvent(&protocol.Event{Seq: 1, Name: "click", Type: "click"})
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"trailing", append(append([]byte{}, valid...), 0x01), protocol.ErrTrailingBytes},
		{"bad immediate", []byte{0x01, 0x00, 0x00, 0x00, 0x05, 0x00}, protocol.ErrInvalidBool},
		{"bad value tag", []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x01, 0x01, 'k', 0x42}, protocol.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := protocol.DecodeEvent(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("DecodeEvent() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestControlRoundTrip(t *testing.T) {
	ping := protocol.NewPing(1700000000123)
	tests := []*protocol.Control{
		ping,
		ping.Pong(),
		protocol.NewClose(protocol.CloseServerShutdown, "restarting"),
	}
	for _, c := range tests {
		t.Run(c.Type.String(), func(t *testing.T) {
			got, err := protocol.DecodeControl(protocol.EncodeControl(c))
			if err != nil {
				t.Fatalf("DecodeControl() error = %v", err)
			}
			if diff := cmp.Diff(c, got); diff != "" {
				t.Errorf("control mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if pong := ping.Pong(); pong.Type != protocol.ControlPong || pong.Timestamp != ping.Timestamp {
		t.Errorf("Pong() = %+v", pong)
	}

	unknown, err := protocol.DecodeControl([]byte{0x55, 0x01, 0x02})
	if err != nil || unknown.Type != protocol.ControlType(0x55) {
		t.Errorf("DecodeControl(unknown) = %+v, %v", unknown, err)
	}
}

func TestErrorMessage(t *testing.T) {
	em := &protocol.ErrorMessage{Code: protocol.ErrRateLimited, Message: "event queue full", Fatal: true}
	got, err := protocol.DecodeErrorMessage(protocol.EncodeErrorMessage(em))
	if err != nil {
		t.Fatalf("DecodeErrorMessage() error = %v", err)
	}
	if diff := cmp.Diff(em, got); diff != "" {
		t.Errorf("error message mismatch (-want +got):\n%s", diff)
	}
	if want := "protocol: RateLimited: event queue full"; em.Error() != want {
		t.Errorf("Error() = %q, want %q", em.Error(), want)
	}
}

func FuzzDecodeEvent(f *testing.F) {
	f.Add(protocol.EncodeEvent(&protocol.Event{Seq: 1, Name: "click", Type: "click"}))
	f.Add(protocol.EncodeEvent(&protocol.Event{Seq: 2, Name: "input", Fields: map[string]any{"target.value": "x", "n": 1.5}}))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = protocol.DecodeEvent(data)
	})
}
