package utils

import (
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// NormalizePtrDTO trims *string fields and rounds *decimal.Decimal fields on a pointer-to-struct DTO.
// Only non-nil pointer fields are touched; nils stay nil so they are not patched.
func NormalizePtrDTO(dto any) {
	s, ok := structOf(dto)
	if !ok {
		return
	}
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if f.Kind() != reflect.Ptr || f.IsNil() {
			continue
		}
		normalizeValue(f.Elem())
	}
}

// NormalizeDTO trims string fields and rounds decimal fields on a pointer-to-struct DTO.
// Useful for create DTOs that use non-pointer fields.
func NormalizeDTO(dto any) {
	s, ok := structOf(dto)
	if !ok {
		return
	}
	for i := 0; i < s.NumField(); i++ {
		normalizeValue(s.Field(i))
	}
}

func structOf(dto any) (reflect.Value, bool) {
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, false
	}
	s := v.Elem()
	return s, s.Kind() == reflect.Struct
}

func normalizeValue(f reflect.Value) {
	if !f.CanSet() {
		return
	}
	switch {
	case f.Kind() == reflect.String:
		f.SetString(strings.TrimSpace(f.String()))
	case f.Type() == decimalType:
		f.Set(reflect.ValueOf(Round2(f.Interface().(decimal.Decimal))))
	}
}
