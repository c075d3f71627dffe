package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StringList decodes a list field sent either as a JSON array or as a JSON
// array encoded into a string, which is how multipart clients send it.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseStringList(s)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected array of strings: %w", err)
	}
	*l = items
	return nil
}

// ParseStringList parses the string form of a list field. An empty string
// is an empty list.
func ParseStringList(s string) (StringList, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("expected JSON array of strings: %w", err)
	}
	return items, nil
}
