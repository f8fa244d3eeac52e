package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONMap is a free-form metadata mapping persisted as a JSON text column.
// GORM dialects in this repo (mysql, sqlite) both support TEXT, so we avoid
// a driver-specific JSON column type and marshal explicitly instead.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("models: unsupported JSONMap scan source")
	}
	if len(raw) == 0 {
		*m = JSONMap{}
		return nil
	}
	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// StringSet is an unordered set of strings (brands, tags, tickers)
// persisted as a JSON array so repeated writes of the same set produce
// identical column content.
type StringSet []string

func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSet) Scan(value interface{}) error {
	if value == nil {
		*s = StringSet{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("models: unsupported StringSet scan source")
	}
	if len(raw) == 0 {
		*s = StringSet{}
		return nil
	}
	var out StringSet
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

// Contains reports whether value is present in the set (case-sensitive).
func (s StringSet) Contains(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}
