package server

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vango-go/weft/pkg/protocol"
)

func TestProtocolErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{protocol.ErrBufferTooShort, "E060"},
		{protocol.ErrInvalidFrameType, "E060"},
		{protocol.ErrUnknownChange, "E061"},
		{fmt.Errorf("node: %w", protocol.ErrUnknownNodeKind), "E061"},
		{protocol.ErrAllocationTooLarge, "E062"},
		{protocol.ErrMaxDepthExceeded, "E062"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got := protocolError(tt.err)
			if got.Code != tt.want {
				t.Errorf("code = %s, want %s", got.Code, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error does not wrap the original")
			}
		})
	}
}
