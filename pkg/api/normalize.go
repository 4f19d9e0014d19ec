package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

const unknownErrorMessage = "unknown error"

// Normalized is the stable form of an arbitrary failure value.
type Normalized struct {
	Code    string
	Message string
}

// Normalize converts any value describing a failure into a message and an
// optional code. Rules apply in priority order:
//
//  1. nil: "unknown error"
//  2. string: used verbatim
//  3. error: its message; the code of a wrapped *ProviderError is kept
//  4. object with an "error" member: message from message|msg|detail (else
//     the member's JSON), code from code|type; a string member is the message
//  5. object with "message" or "code"
//  6. object with "status" and "statusText": "HTTP <status> <statusText>"
//  7. anything else: its JSON text, or its default formatting
//
// Byte slices and structs are decoded into objects first when possible.
// Normalize never fails.
func Normalize(v any) Normalized {
	switch x := v.(type) {
	case nil:
		return Normalized{Message: unknownErrorMessage}
	case string:
		return Normalized{Message: x}
	case *ProviderError:
		if x == nil {
			return Normalized{Message: unknownErrorMessage}
		}
		return Normalized{Code: x.Code, Message: nonEmpty(x.Message)}
	case error:
		n := Normalized{Message: nonEmpty(x.Error())}
		var pe *ProviderError
		if errors.As(x, &pe) && pe != nil {
			n.Code = pe.Code
		}
		return n
	case map[string]any:
		return normalizeObject(x)
	case json.RawMessage:
		return normalizeJSON(x)
	case []byte:
		return normalizeJSON(x)
	}

	if obj, ok := toObject(v); ok {
		return normalizeObject(obj)
	}
	return Normalized{Message: jsonText(v)}
}

func normalizeJSON(data []byte) Normalized {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Normalized{Message: nonEmpty(string(data))}
	}
	if obj, ok := parsed.(map[string]any); ok {
		return normalizeObject(obj)
	}
	if s, ok := parsed.(string); ok {
		return Normalized{Message: s}
	}
	return Normalized{Message: jsonText(parsed)}
}

func normalizeObject(obj map[string]any) Normalized {
	switch inner := obj["error"].(type) {
	case map[string]any:
		msg, ok := firstString(inner, "message", "msg", "detail")
		if !ok {
			msg = jsonText(inner)
		}
		return Normalized{Code: firstCode(inner, "code", "type"), Message: msg}
	case string:
		if inner != "" {
			return Normalized{Code: firstCode(obj, "code"), Message: inner}
		}
	}

	if truthy(obj["message"]) || truthy(obj["code"]) {
		n := Normalized{Code: firstCode(obj, "code")}
		if msg, ok := obj["message"]; ok && msg != nil {
			n.Message = scalarText(msg)
		} else {
			n.Message = jsonText(obj)
		}
		return n
	}

	status, hasStatus := obj["status"]
	statusText, hasText := obj["statusText"]
	if hasStatus && hasText {
		return Normalized{Message: fmt.Sprintf("HTTP %s %s", scalarText(status), scalarText(statusText))}
	}

	return Normalized{Message: jsonText(obj)}
}

// toObject round-trips v through JSON and reports whether it encodes as an
// object.
func toObject(v any) (map[string]any, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func firstString(obj map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func firstCode(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			if s := scalarText(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// truthy mirrors the loose presence test used for "message" and "code":
// empty strings, zero, false and null do not count.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	default:
		return true
	}
}

func scalarText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return jsonText(x)
	}
}

func jsonText(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func nonEmpty(msg string) string {
	if msg == "" {
		return unknownErrorMessage
	}
	return msg
}
