package utils

import (
	"fmt"
	"reflect"

	"gorm.io/gorm"
)

// ColumnUpdates collects the supplied (non-nil pointer) fields of dto into a column map
// for model. Each DTO field is matched to the model field of the same Go name, and the key
// is that field's column as gorm resolves it. DTO fields the model lacks are skipped.
func ColumnUpdates(db *gorm.DB, model, dto any) (map[string]any, error) {
	res := make(map[string]any)
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return res, nil
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("parse model schema: %w", err)
	}

	s := v.Elem()
	t := s.Type()
	for i := 0; i < t.NumField(); i++ {
		fv := s.Field(i)
		if fv.Kind() != reflect.Ptr || fv.IsNil() {
			continue
		}
		field := stmt.Schema.LookUpField(t.Field(i).Name)
		if field == nil || field.DBName == "" {
			continue
		}
		res[field.DBName] = fv.Elem().Interface()
	}
	return res, nil
}
