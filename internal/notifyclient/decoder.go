package notifyclient

import "bytes"

var dataPrefix = []byte("data: ")

// Decoder splits an event stream into data payloads as bytes arrive. A line
// cut by a chunk boundary is carried over until its newline shows up.
type Decoder struct {
	carry []byte
}

// Feed consumes one chunk and returns the payload of every complete
// "data: " line in it. Comment lines and blank separators are dropped.
func (d *Decoder) Feed(chunk []byte) [][]byte {
	if len(chunk) == 0 {
		return nil
	}
	d.carry = append(d.carry, chunk...)

	var out [][]byte
	for {
		i := bytes.IndexByte(d.carry, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(d.carry[:i], []byte{'\r'})
		if bytes.HasPrefix(line, dataPrefix) {
			payload := make([]byte, len(line)-len(dataPrefix))
			copy(payload, line[len(dataPrefix):])
			out = append(out, payload)
		}
		d.carry = d.carry[i+1:]
	}
	if len(d.carry) == 0 {
		d.carry = nil
	}
	return out
}

// Pending reports how many bytes are waiting for the rest of their line.
func (d *Decoder) Pending() int { return len(d.carry) }

func (d *Decoder) Reset() { d.carry = nil }
