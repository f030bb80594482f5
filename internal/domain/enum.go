package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// decodeEnum reads an enumeration encoded either as its numeric value or as
// its name (case-insensitive).
func decodeEnum(data []byte, names map[int]string, kind string) (int, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		for v, name := range names {
			if strings.EqualFold(name, s) {
				return v, nil
			}
		}
		return 0, fmt.Errorf("unknown %s %q", kind, s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, fmt.Errorf("decoding %s: %w", kind, err)
	}
	if _, ok := names[n]; !ok {
		return 0, fmt.Errorf("unknown %s %d", kind, n)
	}
	return n, nil
}

func enumName(names map[int]string, v int) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("%d", v)
}
