package realtime

import (
	"encoding/json"
	"fmt"
)

const (
	FrameKindData      = "data"
	FrameKindHeartbeat = "heartbeat"
)

// heartbeatFrame is an SSE comment line; consumers ignore it.
var heartbeatFrame = []byte(": ping\n\n")

var connectedFrame = mustEncode(map[string]string{"type": "connected"})

// EncodeFrame renders payload as a single "data: <json>\n\n" frame.
func EncodeFrame(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	out := make([]byte, 0, len(raw)+8)
	out = append(out, "data: "...)
	out = append(out, raw...)
	out = append(out, '\n', '\n')
	return out, nil
}

func mustEncode(payload any) []byte {
	b, err := EncodeFrame(payload)
	if err != nil {
		panic(err)
	}
	return b
}
