package utils

import (
	"reflect"
	"strconv"
	"strings"
)

// UpdatesFromPtrDTO builds a column patch from the non-nil pointer fields of a DTO.
// The column is the json name unless the field carries gorm:"column:x"; renames
// (json name -> column) win over both.
func UpdatesFromPtrDTO(dto any, renames map[string]string) map[string]any {
	res := make(map[string]any)
	s, ok := structOf(dto)
	if !ok {
		return res
	}
	t := s.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := s.Field(i)
		if fv.Kind() != reflect.Ptr || fv.IsNil() {
			continue
		}
		name := strings.Split(sf.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		col := name
		if c := gormColumn(sf.Tag.Get("gorm")); c != "" {
			col = c
		}
		if alt, ok := renames[name]; ok && alt != "" {
			col = alt
		}
		res[col] = fv.Elem().Interface()
	}
	return res
}

func gormColumn(tag string) string {
	for _, part := range strings.Split(tag, ";") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(part), "column:"); ok {
			return v
		}
	}
	return ""
}

// ParseIntDefault returns def for empty, malformed or negative input.
func ParseIntDefault(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v >= 0 {
		return v
	}
	return def
}

// ParseIntRange is ParseIntDefault capped at max; zero falls back to def.
func ParseIntRange(s string, def, max int) int {
	v := ParseIntDefault(s, def)
	if v == 0 {
		v = def
	}
	if v > max {
		v = max
	}
	return v
}
