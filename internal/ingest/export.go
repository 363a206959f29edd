package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/natefinch/atomic"

	"github.com/roach88/rolodex/internal/contact"
)

// Marshal encodes b as indented JSON with a trailing newline.
func Marshal(b Batch) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes b to path atomically: readers see the old file or the
// complete new one, never a partial write.
func WriteFile(path string, b Batch) error {
	data, err := Marshal(b)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return contact.E(contact.IO, "write batch", err)
	}
	return nil
}
