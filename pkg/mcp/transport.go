package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// maxMessageSize bounds a single newline-delimited message (run_updates
// payloads can get large).
const maxMessageSize = 16 << 20

// Transport speaks newline-delimited JSON-RPC over a reader/writer pair,
// normally stdin/stdout.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex
}

// NewTransport creates a new stdio transport
func NewTransport(r io.Reader, w io.Writer) *Transport {
	return &Transport{
		reader: bufio.NewReaderSize(r, 64<<10),
		writer: w,
	}
}

var (
	// ErrMessageTooLarge is returned when a line exceeds maxMessageSize.
	ErrMessageTooLarge = errors.New("mcp: message too large")
	// ErrParse wraps messages that are not valid JSON-RPC.
	ErrParse = errors.New("failed to parse message")
)

// ReadMessage reads the next JSON-RPC message. Blank lines are skipped and a
// final message without a trailing newline is still delivered before io.EOF.
func (t *Transport) ReadMessage() (*Request, error) {
	for {
		line, err := t.readLine()
		if len(bytes.TrimSpace(line)) == 0 {
			if err != nil {
				return nil, err
			}
			continue
		}

		var req Request
		if uerr := json.Unmarshal(line, &req); uerr != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, uerr)
		}
		return &req, nil
	}
}

func (t *Transport) readLine() ([]byte, error) {
	var buf []byte
	for {
		chunk, err := t.reader.ReadSlice('\n')
		buf = append(buf, chunk...)
		if len(buf) > maxMessageSize {
			// Drop the rest of the line so the next read starts on a message.
			for errors.Is(err, bufio.ErrBufferFull) {
				_, err = t.reader.ReadSlice('\n')
			}
			return nil, ErrMessageTooLarge
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return buf, err
	}
}

// WriteResponse writes a JSON-RPC response as a single line.
func (t *Transport) WriteResponse(resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return t.writeLine(data)
}

func (t *Transport) writeLine(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := fmt.Fprintf(t.writer, "%s\n", data)
	return err
}
