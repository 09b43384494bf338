package store

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DecodeError reports a stored row that is missing or has a malformed required
// field. It is raised at the store boundary so screens only ever see complete
// records.
type DecodeError struct {
	Collection string
	ID         string
	Field      string
	Tag        string
}

func (e *DecodeError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("decode %s: field %q failed %q", e.Collection, e.Field, e.Tag)
	}
	return fmt.Sprintf("decode %s/%s: field %q failed %q", e.Collection, e.ID, e.Field, e.Tag)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

type keyed interface {
	Key() string
}

func decodeOne[T any](collection string, rec *T) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	derr := &DecodeError{Collection: collection, Field: verrs[0].Field(), Tag: verrs[0].Tag()}
	if k, ok := any(*rec).(keyed); ok {
		derr.ID = k.Key()
	}
	return derr
}

// decodeRows checks every row; the first failure wins.
func decodeRows[T any](collection string, rows []T) error {
	for i := range rows {
		if err := decodeOne(collection, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}
