package schema

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/mango-db/mango/internal/core"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// coerce checks a value against a field spec and returns its normalized
// form. Inputs arrive both from Go callers (typed values) and from decoded
// wire data (float64 numbers, RFC 3339 strings for times), so each type
// accepts the conventional encodings alongside the native one.
func coerce(spec *FieldSpec, path string, value interface{}) (interface{}, core.Issues) {
	switch spec.Type {
	case Any:
		return value, nil
	case String:
		return coerceString(spec, path, value)
	case Int:
		return coerceInt(spec, path, value)
	case Float:
		return coerceFloat(spec, path, value)
	case Bool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, typeIssue(path, "bool", value)
	case Time:
		return coerceTime(path, value)
	case ObjectID:
		return coerceObjectID(path, value)
	case Array:
		return coerceArray(spec, path, value)
	case Object:
		return coerceObject(spec, path, value)
	default:
		return nil, core.Issues{{
			Path:    path,
			Code:    core.CodeInvalidType,
			Message: fmt.Sprintf("unknown field type %q", spec.Type),
		}}
	}
}

func typeIssue(path, want string, got interface{}) core.Issues {
	return core.Issues{{
		Path:    path,
		Code:    core.CodeInvalidType,
		Message: fmt.Sprintf("expected %s, got %T", want, got),
	}}
}

func coerceString(spec *FieldSpec, path string, value interface{}) (interface{}, core.Issues) {
	s, ok := value.(string)
	if !ok {
		return nil, typeIssue(path, "string", value)
	}
	if iss := checkLength(spec, path, len(s), "string"); iss != nil {
		return nil, iss
	}
	if iss := checkEnum(spec, path, s); iss != nil {
		return nil, iss
	}
	return s, nil
}

func coerceInt(spec *FieldSpec, path string, value interface{}) (interface{}, core.Issues) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return nil, typeIssue(path, "integer", value)
		}
		n = int64(v)
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return nil, typeIssue(path, "integer", value)
		}
		n = int64(v)
	default:
		return nil, typeIssue(path, "integer", value)
	}
	if iss := checkBounds(spec, path, float64(n)); iss != nil {
		return nil, iss
	}
	if iss := checkEnum(spec, path, n); iss != nil {
		return nil, iss
	}
	return n, nil
}

func coerceFloat(spec *FieldSpec, path string, value interface{}) (interface{}, core.Issues) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return nil, typeIssue(path, "number", value)
	}
	if iss := checkBounds(spec, path, f); iss != nil {
		return nil, iss
	}
	if iss := checkEnum(spec, path, f); iss != nil {
		return nil, iss
	}
	return f, nil
}

func coerceTime(path string, value interface{}) (interface{}, core.Issues) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case primitive.DateTime:
		return v.Time(), nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, typeIssue(path, "RFC 3339 timestamp", value)
		}
		return t, nil
	default:
		return nil, typeIssue(path, "timestamp", value)
	}
}

func coerceObjectID(path string, value interface{}) (interface{}, core.Issues) {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v, nil
	case string:
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return nil, typeIssue(path, "object id", value)
		}
		return id, nil
	default:
		return nil, typeIssue(path, "object id", value)
	}
}

func coerceArray(spec *FieldSpec, path string, value interface{}) (interface{}, core.Issues) {
	rv := reflect.ValueOf(value)
	if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, typeIssue(path, "array", value)
	}
	length := rv.Len()
	if iss := checkLength(spec, path, length, "array"); iss != nil {
		return nil, iss
	}
	out := make([]interface{}, length)
	var issues core.Issues
	for i := 0; i < length; i++ {
		elem := rv.Index(i).Interface()
		if spec.Elem == nil {
			out[i] = elem
			continue
		}
		coerced, iss := coerce(spec.Elem, fmt.Sprintf("%s.%d", path, i), elem)
		if len(iss) > 0 {
			issues = append(issues, iss...)
			continue
		}
		out[i] = coerced
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return out, nil
}

func coerceObject(spec *FieldSpec, path string, value interface{}) (interface{}, core.Issues) {
	doc, ok := value.(map[string]interface{})
	if !ok {
		return nil, typeIssue(path, "document", value)
	}
	if len(spec.Fields) == 0 {
		return doc, nil
	}
	out, issues := validateFields(spec.Fields, doc, path+".", false, fullMode)
	if len(issues) > 0 {
		return nil, issues
	}
	return out, nil
}

func checkBounds(spec *FieldSpec, path string, v float64) core.Issues {
	if spec.Min != nil && v < *spec.Min {
		return core.Issues{{
			Path:    path,
			Code:    core.CodeTooSmall,
			Message: fmt.Sprintf("value %v is below minimum %v", v, *spec.Min),
		}}
	}
	if spec.Max != nil && v > *spec.Max {
		return core.Issues{{
			Path:    path,
			Code:    core.CodeTooBig,
			Message: fmt.Sprintf("value %v is above maximum %v", v, *spec.Max),
		}}
	}
	return nil
}

func checkLength(spec *FieldSpec, path string, length int, kind string) core.Issues {
	if spec.Min != nil && float64(length) < *spec.Min {
		return core.Issues{{
			Path:    path,
			Code:    core.CodeTooSmall,
			Message: fmt.Sprintf("%s length %d is below minimum %v", kind, length, *spec.Min),
		}}
	}
	if spec.Max != nil && float64(length) > *spec.Max {
		return core.Issues{{
			Path:    path,
			Code:    core.CodeTooBig,
			Message: fmt.Sprintf("%s length %d is above maximum %v", kind, length, *spec.Max),
		}}
	}
	return nil
}

func checkEnum(spec *FieldSpec, path string, v interface{}) core.Issues {
	if len(spec.Enum) == 0 {
		return nil
	}
	for _, allowed := range spec.Enum {
		if equalScalar(allowed, v) {
			return nil
		}
	}
	return core.Issues{{
		Path:    path,
		Code:    core.CodeInvalidEnum,
		Message: fmt.Sprintf("value %v is not one of the allowed values", v),
	}}
}

// equalScalar compares enum members against coerced values, tolerating the
// int/int64/float64 representations coercion produces.
func equalScalar(a, b interface{}) bool {
	if a == b {
		return true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
