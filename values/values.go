// Package values implements the reflection-based dot-path lookup,
// truthiness, and iteration-context walking shared by the jsonprovider
// and yamlprovider backends.
package values

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Context is a stack of values to search, innermost (most specific)
// first, mirroring a Mustache context chain.
type Context []interface{}

// Push returns a new Context with v prepended.
func (c Context) Push(v interface{}) Context {
	out := make(Context, 0, len(c)+1)
	out = append(out, v)
	out = append(out, c...)
	return out
}

// Lookup resolves a dotted name against the context chain, most specific
// first. "." resolves to the innermost context value itself. A missing
// name reports ok=false.
func Lookup(ctx Context, name string) (interface{}, bool) {
	if name != "." && strings.Contains(name, ".") {
		parts := strings.SplitN(name, ".", 2)
		v, ok := Lookup(ctx, parts[0])
		if !ok {
			return nil, false
		}
		return Lookup(Context{v}, parts[1])
	}

	for _, c := range ctx {
		if name == "." {
			return c, true
		}
		rv := reflect.ValueOf(c)
		switch indirect(rv).Kind() {
		case reflect.Map:
			if v, ok := lookupMap(indirect(rv), name); ok {
				return v, true
			}
		case reflect.Struct:
			if v, ok := lookupStruct(indirect(rv), name); ok {
				return v, true
			}
		case reflect.Array, reflect.Slice:
			if v, ok := lookupIndex(indirect(rv), name); ok {
				return v, true
			}
		}
	}
	return nil, false
}

func lookupMap(rv reflect.Value, name string) (interface{}, bool) {
	item := rv.MapIndex(reflect.ValueOf(name))
	if !item.IsValid() {
		// yaml.v2 decodes mapping keys as interface{}; try that too.
		item = rv.MapIndex(reflect.ValueOf(interface{}(name)))
	}
	if !item.IsValid() {
		return nil, false
	}
	return item.Interface(), true
}

func lookupStruct(rv reflect.Value, name string) (interface{}, bool) {
	field := rv.FieldByName(name)
	if field.IsValid() && field.CanInterface() {
		return field.Interface(), true
	}
	if m := rv.MethodByName(name); m.IsValid() && m.Type().NumIn() == 0 {
		out := m.Call(nil)
		if len(out) > 0 {
			return out[0].Interface(), true
		}
	}
	return nil, false
}

func lookupIndex(rv reflect.Value, name string) (interface{}, bool) {
	idx, err := strconv.Atoi(name)
	if err != nil || idx < 0 || idx >= rv.Len() {
		return nil, false
	}
	return rv.Index(idx).Interface(), true
}

// indirect dereferences pointers and interfaces until it reaches a
// concrete kind.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() {
		switch v.Kind() {
		case reflect.Ptr, reflect.Interface:
			if v.IsNil() {
				return v
			}
			v = v.Elem()
		default:
			return v
		}
	}
	return v
}

// Truthy reports whether v is a "truthy" Mustache section value: present,
// non-zero, non-empty. nil and the zero value of every kind (including
// numeric 0, false, and a nil pointer) are falsy. A zero-valued count
// (e.g. {{#count}} over an int 0) is a common section guard and is
// expected to be falsy.
func Truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		// indirect only stops on Ptr/Interface when the value is nil.
		return false
	case reflect.Array, reflect.Slice, reflect.Map:
		return rv.Len() > 0
	case reflect.String:
		return rv.String() != ""
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	default:
		return true
	}
}

// Iterate returns the per-item contexts a "#name" section should render
// over for a truthy, non-inverted value: each element of a slice/array in
// turn, or the value itself for a map/struct/scalar (so that "{{.}}" and
// field lookups inside the section see it).
func Iterate(v interface{}) []interface{} {
	rv := indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	default:
		return []interface{}{v}
	}
}

// Format renders v as Mustache interpolation text: a Stringer's String(),
// or fmt-default formatting for scalars.
func Format(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return formatScalar(v)
}

func formatScalar(v interface{}) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}
