package domain

import "fmt"

// System field names maintained by the store.
const (
	FieldID        = "_id"
	FieldOwnerID   = "_ownerId"
	FieldCreatedOn = "_createdOn"
	FieldUpdatedOn = "_updatedOn"
	FieldDeletedOn = "_deletedOn"
)

// FieldHashedPassword holds the password hash of identity records.
// It never leaves the protected store.
const FieldHashedPassword = "hashedPassword"

var systemFields = [...]string{FieldID, FieldOwnerID, FieldCreatedOn, FieldUpdatedOn}

// IsSystemField reports whether name is computed by the store and
// therefore not settable by a write payload.
func IsSystemField(name string) bool {
	for _, f := range systemFields {
		if f == name {
			return true
		}
	}
	return false
}

// Record is a single schemaless document.
type Record map[string]any

// ID returns the record's _id or an empty string.
func (r Record) ID() string {
	s, _ := r[FieldID].(string)
	return s
}

// OwnerID returns the record's _ownerId or an empty string.
func (r Record) OwnerID() string {
	s, _ := r[FieldOwnerID].(string)
	return s
}

// Clone returns a deep copy of r. Nested maps and lists are copied;
// scalar values are shared.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = CopyValue(v)
	}
	return out
}

// WithoutSystemFields returns a deep copy of r with all system fields
// removed.
func (r Record) WithoutSystemFields() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if IsSystemField(k) {
			continue
		}
		out[k] = CopyValue(v)
	}
	return out
}

// CopyValue deep-copies maps and lists; other values are returned as is.
func CopyValue(v any) any {
	switch t := v.(type) {
	case Record:
		return t.Clone()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = CopyValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = CopyValue(vv)
		}
		return out
	default:
		return v
	}
}

// Normalize converts decoder output into the value model used by records:
// map[string]any for objects, []any for lists, int64 or float64 for numbers.
// YAML decoders may produce map[any]any and sized integer types.
func Normalize(v any) any {
	switch t := v.(type) {
	case Record:
		return Record(normalizeMap(t))
	case map[string]any:
		return normalizeMap(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = Normalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = Normalize(vv)
		}
		return out
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Normalize(v)
	}
	return out
}

// ToRecord converts a decoded JSON/YAML object into a Record.
// It returns false when v is not an object.
func ToRecord(v any) (Record, bool) {
	switch t := Normalize(v).(type) {
	case Record:
		return t, true
	case map[string]any:
		return Record(t), true
	default:
		return nil, false
	}
}

// Deletion is the result of deleting a record.
type Deletion struct {
	DeletedOn int64 `json:"_deletedOn"`
}

// Snapshot is a full dump of a store: collection name → record id → record.
type Snapshot map[string]map[string]Record

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for name, coll := range s {
		c := make(map[string]Record, len(coll))
		for id, rec := range coll {
			c[id] = rec.Clone()
		}
		out[name] = c
	}
	return out
}
