package persistence

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/petrijr/reqflow/pkg/api"
)

// ErrEmptyPayload is returned when decoding an empty byte slice.
var ErrEmptyPayload = errors.New("empty run event payload")

// EncodeEvent serializes ev using encoding/gob. Stores that keep events as
// opaque values (e.g. Redis lists) use it.
func EncodeEvent(ev api.RunEvent) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ev); err != nil {
		return nil, fmt.Errorf("encode run event: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeEvent is the inverse of EncodeEvent.
func DecodeEvent(data []byte) (api.RunEvent, error) {
	var ev api.RunEvent
	if len(data) == 0 {
		return ev, ErrEmptyPayload
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ev); err != nil {
		return ev, fmt.Errorf("decode run event: %w", err)
	}
	return ev, nil
}
