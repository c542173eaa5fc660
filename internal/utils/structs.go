package utils

import (
	"fmt"
	"reflect"
)

var ColumnTag = "db"

// StructTagValues returns the column names of input in field order.
// Untagged embedded structs are flattened, matching how pgxscan maps them.
func StructTagValues(input any) []string {

	targetValue := reflect.ValueOf(input)
	if targetValue.Kind() == reflect.Ptr {
		targetValue = targetValue.Elem()
	}

	if targetValue.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	result := make([]string, 0, targetValue.NumField())
	walkColumns(targetValue, func(tag string, _ reflect.Value) {
		result = append(result, tag)
	})

	return result

}

func StructToMap(input any) map[string]any {

	result := make(map[string]any)

	itemValue := reflect.ValueOf(input)
	if itemValue.Kind() == reflect.Ptr {
		itemValue = itemValue.Elem()
	}

	if itemValue.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	walkColumns(itemValue, func(tag string, field reflect.Value) {
		result[tag] = field.Interface()
	})

	return result

}

func walkColumns(value reflect.Value, fn func(tag string, field reflect.Value)) {
	valueType := value.Type()

	for i := 0; i < value.NumField(); i++ {

		field := valueType.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct && field.Tag.Get(ColumnTag) == "" {
			walkColumns(value.Field(i), fn)
			continue
		}

		if field.PkgPath != "" {
			continue
		}

		tagValue := field.Tag.Get(ColumnTag)
		if tagValue == "" || tagValue == "-" {
			continue
		}

		fn(tagValue, value.Field(i))

	}
}

func ErrorWrapOrNil(err error, msg string) error {
	if err == nil {
		return nil
	}

	if msg == "" {
		return err
	}

	return fmt.Errorf("%s: %w", msg, err)

}
