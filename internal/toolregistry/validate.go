package toolregistry

import (
	"fmt"

	"github.com/saidsurucu/yargi-mcp-sub000/internal/gatewayerr"
)

// Validate checks args against schema field-by-field before any adapter or
// network call runs, satisfying the schema-closure testable property:
// InvalidArgument is always produced before a backend is ever touched.
func Validate(schema ArgSchema, args map[string]any) error {
	for name, constraint := range schema.Fields {
		value, present := args[name]
		if !present || value == nil {
			if constraint.Required {
				return gatewayerr.Newf(gatewayerr.InvalidArgument, "missing required field %q", name).WithFieldPath(name)
			}
			continue
		}
		if err := validateField(name, constraint, value); err != nil {
			return err
		}
	}
	for name := range args {
		if _, known := schema.Fields[name]; !known {
			return gatewayerr.Newf(gatewayerr.InvalidArgument, "unknown field %q", name).WithFieldPath(name)
		}
	}
	return nil
}

func validateField(name string, c FieldConstraint, value any) error {
	switch c.Kind {
	case FieldString:
		if _, ok := value.(string); !ok {
			return fieldErr(name, "expected a string")
		}
	case FieldClosedSet:
		s, ok := value.(string)
		if !ok {
			return fieldErr(name, "expected a string")
		}
		for _, allowed := range c.ClosedSet {
			if s == allowed {
				return nil
			}
		}
		return fieldErr(name, fmt.Sprintf("value %q is not in the closed set %v", s, c.ClosedSet))
	case FieldInt:
		n, ok := asInt(value)
		if !ok {
			return fieldErr(name, "expected an integer")
		}
		if c.MinInt != 0 && n < c.MinInt {
			return fieldErr(name, fmt.Sprintf("must be >= %d", c.MinInt))
		}
		if c.MaxInt != 0 && n > c.MaxInt {
			return fieldErr(name, fmt.Sprintf("must be <= %d", c.MaxInt))
		}
	case FieldDateRange:
		m, ok := value.(map[string]any)
		if !ok {
			return fieldErr(name, "expected a date range object")
		}
		for _, k := range []string{"start", "end"} {
			if v, ok := m[k]; ok {
				if _, ok := v.(string); !ok {
					return fieldErr(name, fmt.Sprintf("%s must be a string", k))
				}
			}
		}
	case FieldCaseNumber:
		m, ok := value.(map[string]any)
		if !ok {
			return fieldErr(name, "expected a case number object")
		}
		if _, ok := m["year"]; !ok {
			return fieldErr(name, "year is required")
		}
		if _, ok := m["sequence"]; !ok {
			return fieldErr(name, "sequence is required")
		}
	default:
		return fieldErr(name, fmt.Sprintf("unsupported field kind %q", c.Kind))
	}
	return nil
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func fieldErr(name, message string) error {
	return gatewayerr.Newf(gatewayerr.InvalidArgument, "field %q: %s", name, message).WithFieldPath(name)
}
