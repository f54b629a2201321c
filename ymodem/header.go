package ymodem

import (
	"bytes"
	"strconv"
	"strings"
)

// Header is the file information carried by packet 0.
type Header struct {
	Name string
	// Size is the declared file length, 0 when unknown.
	Size int64
}

// ParseHeader decodes the payload of packet 0: a NUL terminated file name followed by an
// optional space separated information string starting with the decimal file length.
// An empty name marks the end of a batch.
func ParseHeader(data []byte) (Header, error) {
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return Header{}, ErrInvalidHeader
	}

	h := Header{Name: string(data[:nul])}

	info := data[nul+1:]
	if end := bytes.IndexByte(info, 0); end >= 0 {
		info = info[:end]
	}
	if fields := strings.Fields(string(info)); len(fields) > 0 {
		if size, err := strconv.ParseInt(fields[0], 10, 64); err == nil && size > 0 {
			h.Size = size
		}
	}

	return h, nil
}
