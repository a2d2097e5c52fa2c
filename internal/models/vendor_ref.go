package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// VendorCandidate is one identity a VendorRef may point at. Any of the fields
// can be empty.
type VendorCandidate struct {
	ID    string
	Name  string
	Email string
}

// VendorRef is the assignedVendor value of a complaint. Legacy records store
// a bare string or number, an array of those, or an object; the raw JSON is
// kept as-is so a read-modify-write cycle does not change its shape.
type VendorRef struct {
	raw json.RawMessage
}

// NewVendorRef builds the object form {vendorId, name, email}.
func NewVendorRef(vendorID, name, email string) *VendorRef {
	obj := map[string]string{}
	if vendorID != "" {
		obj["vendorId"] = vendorID
	}
	if name != "" {
		obj["name"] = name
	}
	if email != "" {
		obj["email"] = email
	}
	raw, _ := json.Marshal(obj)
	return &VendorRef{raw: raw}
}

// RawVendorRef wraps already-encoded JSON.
func RawVendorRef(raw []byte) *VendorRef {
	return &VendorRef{raw: append(json.RawMessage(nil), raw...)}
}

func (r VendorRef) MarshalJSON() ([]byte, error) {
	if len(r.raw) == 0 {
		return []byte("null"), nil
	}
	return r.raw, nil
}

func (r *VendorRef) UnmarshalJSON(data []byte) error {
	r.raw = append(r.raw[:0], data...)
	return nil
}

func (r *VendorRef) IsZero() bool {
	return r == nil || len(bytes.TrimSpace(r.raw)) == 0 || bytes.Equal(bytes.TrimSpace(r.raw), []byte("null"))
}

// Candidates flattens the reference into the identities it names.
func (r *VendorRef) Candidates() []VendorCandidate {
	if r.IsZero() {
		return nil
	}
	return candidatesFrom(r.raw)
}

// Primary returns the first candidate, or a zero value.
func (r *VendorRef) Primary() VendorCandidate {
	c := r.Candidates()
	if len(c) == 0 {
		return VendorCandidate{}
	}
	return c[0]
}

func candidatesFrom(raw json.RawMessage) []VendorCandidate {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		var out []VendorCandidate
		for _, item := range items {
			out = append(out, candidatesFrom(item)...)
		}
		return out
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil
		}
		c := VendorCandidate{
			ID:    firstString(obj, "vendorId", "vendor_id", "id"),
			Name:  firstString(obj, "name", "vendorName", "title"),
			Email: firstString(obj, "email", "contactEmail"),
		}
		if c == (VendorCandidate{}) {
			return nil
		}
		return []VendorCandidate{c}
	default:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil
		}
		s := scalarString(v)
		if s == "" {
			return nil
		}
		// A bare value may be an id, a name or an e-mail.
		return []VendorCandidate{{ID: s, Name: s, Email: s}}
	}
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s := scalarString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return normalizeNumber(formatFloat(t))
	case json.Number:
		return normalizeNumber(t.String())
	}
	return ""
}

func formatFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}
