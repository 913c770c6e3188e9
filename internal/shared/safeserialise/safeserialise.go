// Package safeserialise implements the safe-serialisation rule (4.5, 9):
// upstream envelopes may contain non-plain values (byte slices, foreign
// buffer-like types, functions in nested contexts); this package sanitises
// them into a stable, schema-bearing JSON tree that never blocks ingestion.
package safeserialise

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
)

// Sanitise converts an arbitrary upstream value into a JSON-marshalable
// tree following the __type tagging scheme:
//
//	[]byte / [N]byte arrays -> {"__type": "bytes", "data": base64}
//	func values             -> {"__type": "function", "name": string}
//	structs with a Bytes() []byte method (e.g. bytes.Buffer) -> {"__type": "buffer", "data": base64}
//	anything else that cannot be marshaled plainly -> {"__type": "opaque", "toString": string}
//
// Sanitise never panics and never returns an error to the caller; on
// internal failure it returns a fallback object carrying
// "__serialization_error": true so ingestion can always proceed.
func Sanitise(v interface{}) (result map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			result = fallback(fmt.Sprintf("panic during sanitisation: %v", r))
		}
	}()

	switch typed := v.(type) {
	case nil:
		return map[string]interface{}{"value": nil}
	case map[string]interface{}:
		return sanitiseMap(typed)
	default:
		return map[string]interface{}{"value": sanitiseValue(reflect.ValueOf(v))}
	}
}

func sanitiseMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = sanitiseValue(reflect.ValueOf(v))
	}
	return out
}

func sanitiseValue(rv reflect.Value) interface{} {
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if isByteSlice(rv) {
			if rv.Kind() == reflect.Array {
				b := make([]byte, rv.Len())
				reflect.Copy(reflect.ValueOf(b), rv)
				return bytesTag(b)
			}
			return bytesTag(rv.Bytes())
		}
		length := rv.Len()
		out := make([]interface{}, length)
		for i := 0; i < length; i++ {
			out[i] = sanitiseValue(rv.Index(i))
		}
		return out

	case reflect.Map:
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprintf("%v", iter.Key().Interface())] = sanitiseValue(iter.Value())
		}
		return out

	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return sanitiseValue(rv.Elem())

	case reflect.Struct:
		return sanitiseStruct(rv)

	case reflect.Func:
		return map[string]interface{}{"__type": "function", "name": runtimeFuncName(rv)}

	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.Interface()

	default:
		return opaqueTag(rv)
	}
}

func isByteSlice(rv reflect.Value) bool {
	return rv.Type().Elem().Kind() == reflect.Uint8
}

func bytesTag(b []byte) map[string]interface{} {
	return map[string]interface{}{"__type": "bytes", "data": base64.StdEncoding.EncodeToString(b)}
}

func opaqueTag(rv reflect.Value) map[string]interface{} {
	toString := fmt.Sprintf("%v", rv.Interface())
	return map[string]interface{}{"__type": "opaque", "toString": toString}
}

// sanitiseStruct recognises buffer-like foreign types (anything exposing a
// Bytes() []byte method, e.g. bytes.Buffer) and otherwise falls through to
// plain JSON marshaling, tagging unmarshalable structs as opaque.
func sanitiseStruct(rv reflect.Value) interface{} {
	if rv.CanAddr() {
		if m := rv.Addr().MethodByName("Bytes"); m.IsValid() {
			if out, ok := callBytesMethod(m); ok {
				return map[string]interface{}{"__type": "buffer", "data": base64.StdEncoding.EncodeToString(out)}
			}
		}
	}
	if m := rv.MethodByName("Bytes"); m.IsValid() {
		if out, ok := callBytesMethod(m); ok {
			return map[string]interface{}{"__type": "buffer", "data": base64.StdEncoding.EncodeToString(out)}
		}
	}

	if b, err := json.Marshal(rv.Interface()); err == nil {
		var plain map[string]interface{}
		if err := json.Unmarshal(b, &plain); err == nil {
			return plain
		}
	}
	return opaqueTag(rv)
}

func callBytesMethod(m reflect.Value) ([]byte, bool) {
	if m.Type().NumIn() != 0 || m.Type().NumOut() != 1 {
		return nil, false
	}
	out := m.Call(nil)
	b, ok := out[0].Interface().([]byte)
	return b, ok
}

func runtimeFuncName(rv reflect.Value) string {
	return rv.Type().String()
}

func fallback(reason string) map[string]interface{} {
	return map[string]interface{}{
		"__serialization_error": true,
		"reason":                reason,
	}
}
