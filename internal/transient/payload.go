package transient

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jmylchreest/notchd/internal/model"
)

// Payload is a peek request received from outside the process.
type Payload struct {
	Show  bool
	Kind  model.PeekKind
	Value float64
	Icon  string
}

type rawPayload struct {
	Show  bool            `json:"show"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
	Icon  string          `json:"icon"`
}

// ParsePayload decodes {"show","type","value","icon"}. The value is normally
// a decimal string; a number is accepted too. An unparsable value becomes 0
// and an unknown type becomes battery. Only invalid JSON is an error.
func ParsePayload(data []byte) (Payload, error) {
	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return Payload{}, fmt.Errorf("decoding peek payload: %w", err)
	}

	kind, ok := model.ParsePeekKind(raw.Type)
	if !ok {
		kind = model.PeekBattery
	}

	return Payload{
		Show:  raw.Show,
		Kind:  kind,
		Value: ParseValue(raw.Value),
		Icon:  raw.Icon,
	}, nil
}

// ParseValue reads a JSON number or decimal string, returning 0 when the
// input is missing or malformed.
func ParseValue(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	return ParseDecimal(s)
}

// ParseDecimal parses a POSIX-locale decimal, returning 0 on failure.
func ParseDecimal(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
