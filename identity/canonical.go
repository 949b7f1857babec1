package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Namespace is the UUIDv5 namespace shared by platform-derived and
// content-derived identifiers.
var Namespace = uuid.MustParse("00abedb4-aa42-466c-9c01-fed23315a9b7")

// TimestampLayout is the layout used for time values taking part in an identifier.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Canonicalize encodes v as compact JSON with sorted object keys and no HTML
// escaping. Maps are the only unordered containers, so the output is stable.
func Canonicalize(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to canonicalize value: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Derive returns "<prefix>--<uuid5(Namespace, canonical(data))>".
func Derive(prefix string, data map[string]any) (string, error) {
	if strings.TrimSpace(prefix) == "" {
		return "", fmt.Errorf("%w: empty prefix", ErrKindNotRegistered)
	}
	canonical, err := Canonicalize(data)
	if err != nil {
		return "", err
	}
	return prefix + "--" + uuid.NewSHA1(Namespace, canonical).String(), nil
}
