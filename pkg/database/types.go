package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// StringList stores a slice of strings in a single text column, used for a
// user's contact ids. It always writes JSON, which every supported driver
// accepts; on read it also understands the brace-delimited literal a legacy
// Postgres text[] column produces.
type StringList []string

// Value marshals the list to a JSON string.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan reads the column back, accepting JSON, a Postgres array literal, or a
// bare string as a one-element list.
func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return l.decode(string(v))
	case string:
		return l.decode(v)
	default:
		return errors.New("StringList: unsupported column type")
	}
}

func (l *StringList) decode(raw string) error {
	switch {
	case strings.HasPrefix(raw, "["):
		return json.Unmarshal([]byte(raw), l)
	case strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}"):
		*l = splitPgArray(strings.TrimSuffix(strings.TrimPrefix(raw, "{"), "}"))
		return nil
	}
	*l = StringList{raw}
	return nil
}

// splitPgArray splits a Postgres array literal body on commas, honouring
// double quotes and backslash escapes.
func splitPgArray(body string) []string {
	if body == "" {
		return []string{}
	}

	var (
		items   []string
		current strings.Builder
		quoted  bool
		escaped bool
	)
	for _, r := range body {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			items = append(items, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(items, current.String())
}

// GormDataType maps the list to a text column.
func (StringList) GormDataType() string {
	return "text"
}
