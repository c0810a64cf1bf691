package fleet

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Ref is a reference to a vehicle or driver as returned by the backend:
// either a bare id string or the populated document.
type Ref struct {
	ID     string
	Object map[string]any
}

// NewRef builds an unpopulated reference.
func NewRef(id string) Ref {
	return Ref{ID: id}
}

// Populated reports whether the backend embedded the referenced document.
func (r Ref) Populated() bool {
	return len(r.Object) > 0
}

// Field returns a string field of the embedded document, "" when absent.
func (r Ref) Field(name string) string {
	if r.Object == nil {
		return ""
	}
	switch v := r.Object[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// UnmarshalJSON accepts a string, null, or an object carrying _id or id.
func (r *Ref) UnmarshalJSON(data []byte) error {
	*r = Ref{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.ID)
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		r.Object = obj
		r.ID = NormalizeID(obj)
		return nil
	default:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		r.ID = NormalizeID(v)
		return nil
	}
}

// MarshalJSON writes the bare id, the shape the backend expects on writes.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// NormalizeID resolves any reference shape into its canonical id.
// It returns "" for nil, empty values and objects without _id or id.
func NormalizeID(ref any) string {
	switch v := ref.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case Ref:
		return v.ID
	case *Ref:
		if v == nil {
			return ""
		}
		return v.ID
	case map[string]any:
		if id := NormalizeID(v["_id"]); id != "" {
			return id
		}
		return NormalizeID(v["id"])
	case map[string]string:
		if id := v["_id"]; id != "" {
			return id
		}
		return v["id"]
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case interface{ GetID() string }:
		return v.GetID()
	default:
		return ""
	}
}
