// Package capture reads key tokens appended to the shared capture file.
package capture

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Channel incrementally reads newly appended key tokens from the capture
// file. The file is owned by the external interceptor; a Channel only ever
// moves its own read cursor and never rewrites or truncates the file.
type Channel struct {
	path   string
	offset int64
}

// NewChannel returns a channel over the given capture file path with the
// cursor at the beginning of the file.
func NewChannel(path string) *Channel {
	return &Channel{path: path}
}

// Path returns the capture file location this channel reads from.
func (c *Channel) Path() string {
	return c.path
}

// IsActive reports whether the interceptor is currently capturing keys. The
// capture file exists exactly while capturing is on; this is the only signal
// available, there is no RPC to the interceptor.
func (c *Channel) IsActive() bool {
	_, err := os.Stat(c.path)
	return err == nil
}

// ResetCursor skips everything currently in the capture file by recording
// its size as the new cursor. The interceptor holds the file open for
// writing, so truncating it here would race with the writer.
func (c *Channel) ResetCursor() {
	info, err := os.Stat(c.path)
	if err != nil {
		c.offset = 0
		return
	}
	c.offset = info.Size()
}

// ReadNewKeys returns the key tokens appended since the last read, one per
// line, trimmed, empty lines dropped. A missing capture file yields no
// tokens and no error. The call never blocks waiting for new data.
func (c *Channel) ReadNewKeys() ([]string, error) {
	file, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only capture file.
			_ = cerr
		}
	}()

	if _, err := file.Seek(c.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek capture file: %w", err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	c.offset += int64(len(data))

	var tokens []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	return tokens, nil
}
