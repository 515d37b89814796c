package bqpipe

import (
	"fmt"
	"strings"
)

// FieldType enumerates the column types a schema can declare.
type FieldType string

// Field types accepted in custom schemas.
const (
	FieldTypeString    FieldType = "STRING"
	FieldTypeBytes     FieldType = "BYTES"
	FieldTypeInteger   FieldType = "INTEGER"
	FieldTypeFloat     FieldType = "FLOAT"
	FieldTypeNumeric   FieldType = "NUMERIC"
	FieldTypeBoolean   FieldType = "BOOLEAN"
	FieldTypeTimestamp FieldType = "TIMESTAMP"
	FieldTypeDate      FieldType = "DATE"
	FieldTypeTime      FieldType = "TIME"
	FieldTypeDateTime  FieldType = "DATETIME"
)

// FieldMode declares whether a column accepts NULL.
type FieldMode string

// Field modes accepted in custom schemas.
const (
	FieldModeNullable FieldMode = "NULLABLE"
	FieldModeRequired FieldMode = "REQUIRED"
)

// Column describes one column of a warehouse table.
type Column struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Mode        FieldMode `json:"mode,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Schema is an ordered list of columns.
type Schema []Column

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}

	return names
}

// ParseFieldType normalizes a type name. It trims surrounding whitespace
// and ignores case.
func ParseFieldType(s string) (FieldType, error) {
	switch t := FieldType(strings.ToUpper(strings.TrimSpace(s))); t {
	case FieldTypeString, FieldTypeBytes, FieldTypeInteger, FieldTypeFloat,
		FieldTypeNumeric, FieldTypeBoolean, FieldTypeTimestamp,
		FieldTypeDate, FieldTypeTime, FieldTypeDateTime:
		return t, nil
	default:
		return "", &SchemaValidationError{Reason: fmt.Sprintf("unknown field type %q", s)}
	}
}

// ParseFieldMode normalizes a mode name. It trims surrounding whitespace
// and ignores case. The empty string means NULLABLE.
func ParseFieldMode(s string) (FieldMode, error) {
	switch m := FieldMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case "":
		return FieldModeNullable, nil
	case FieldModeNullable, FieldModeRequired:
		return m, nil
	default:
		return "", &SchemaValidationError{Reason: fmt.Sprintf("unknown field mode %q", s)}
	}
}

// ResolveSchema validates a caller-supplied schema and appends the
// backend's system timestamp column as the final, required column.
// Column names are trimmed, and lower-cased unless lowercase is false.
// The validation runs before any warehouse call: the first invalid
// column aborts resolution with a SchemaValidationError.
func ResolveSchema(custom Schema, system Column, lowercase bool) (Schema, error) {
	if len(custom) == 0 {
		return nil, &SchemaValidationError{Reason: "custom schema has no columns"}
	}

	resolved := make(Schema, 0, len(custom)+1)
	seen := make(map[string]struct{}, len(custom)+1)

	for i, col := range custom {
		name := strings.TrimSpace(col.Name)
		if lowercase {
			name = strings.ToLower(name)
		}
		if name == "" {
			return nil, &SchemaValidationError{Reason: fmt.Sprintf("column %d has no name", i)}
		}
		if strings.EqualFold(name, system.Name) {
			return nil, &SchemaValidationError{
				Reason: fmt.Sprintf("column name %q is reserved for the load timestamp", system.Name),
			}
		}
		if col.Type == "" {
			return nil, &SchemaValidationError{Reason: fmt.Sprintf("column %q has no type", name)}
		}

		typ, err := ParseFieldType(string(col.Type))
		if err != nil {
			return nil, err
		}

		mode, err := ParseFieldMode(string(col.Mode))
		if err != nil {
			return nil, err
		}

		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return nil, &SchemaValidationError{Reason: fmt.Sprintf("column %q appears more than once", name)}
		}
		seen[key] = struct{}{}

		resolved = append(resolved, Column{
			Name:        name,
			Type:        typ,
			Mode:        mode,
			Description: col.Description,
		})
	}

	system.Mode = FieldModeRequired

	return append(resolved, system), nil
}
