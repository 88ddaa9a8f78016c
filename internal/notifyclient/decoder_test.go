package notifyclient

import (
	"io"
	"testing"

	types "github.com/yungbote/codecompanion-backend/internal/domain/notifications"
	"github.com/yungbote/codecompanion-backend/internal/platform/logger"
)

func TestDecoderCarriesPartialLine(t *testing.T) {
	var dec Decoder
	first := "data: {\"type\":\"connected\"}\n\n" +
		"data: {\"id\":\"1\",\"type\":\"new_problem\"}\n\n" +
		"data: {\"id\":\"2\",\"type\":\"new_problem\"}\n\n" +
		"data: {\"id\":\"3\",\"type\":\"new_sub"

	got := dec.Feed([]byte(first))
	if len(got) != 3 {
		t.Fatalf("first chunk: want=3 payloads got=%d", len(got))
	}
	if dec.Pending() == 0 {
		t.Fatalf("partial line must be carried over")
	}

	got = dec.Feed([]byte("mission\"}\n\n"))
	if len(got) != 1 || string(got[0]) != `{"id":"3","type":"new_submission"}` {
		t.Fatalf("second chunk: %q", got)
	}
	if dec.Pending() != 0 {
		t.Fatalf("nothing should remain, pending=%d", dec.Pending())
	}
}

func TestDecoderIgnoresCommentsAndCRLF(t *testing.T) {
	var dec Decoder
	got := dec.Feed([]byte(": ping\r\n\r\ndata: {\"a\":1}\r\n\r\nevent: x\n"))
	if len(got) != 1 || string(got[0]) != `{"a":1}` {
		t.Fatalf("got %q", got)
	}
}

func TestDecoderByteAtATime(t *testing.T) {
	var dec Decoder
	frame := "data: {\"title\":\"héllo\"}\n\n"
	var got [][]byte
	for i := 0; i < len(frame); i++ {
		got = append(got, dec.Feed([]byte{frame[i]})...)
	}
	if len(got) != 1 || string(got[0]) != `{"title":"héllo"}` {
		t.Fatalf("got %q", got)
	}
}

type chunkReader struct {
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if r.chunks[0] == "" {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func TestReadStreamFiltersConnectedAndSkipsMalformed(t *testing.T) {
	r := &chunkReader{chunks: []string{
		"data: {\"type\":\"connected\"}\n\ndata: {\"id\":\"a\",\"type\":\"new_problem\"}\n\ndata: {\"id\":\"b\",\"ty",
		"pe\":\"new_submission\"}\n\n: ping\n\ndata: {not json}\n\n",
		"data: {\"id\":\"c\",\"type\":\"new_pattern\"}\n\n",
	}}

	connected := 0
	var got []Notification
	readStream(logger.Nop(), r, func() { connected++ }, func(n Notification) { got = append(got, n) })

	if connected != 1 {
		t.Fatalf("connected callbacks: want=1 got=%d", connected)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 notifications, got %+v", got)
	}
	want := []types.Type{types.TypeNewProblem, types.TypeNewSubmission, types.TypeNewPattern}
	for i, n := range got {
		if n.Type != want[i] {
			t.Fatalf("notification %d: want=%s got=%s", i, want[i], n.Type)
		}
		if n.Type == types.TypeConnected {
			t.Fatalf("connected marker leaked into notifications")
		}
	}
}
