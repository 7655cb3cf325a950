// models/content.go
package models

// ContentRecord is a schema-free JSON document stored in one of the content
// collections. Every record carries an "id" unique within its collection and
// an "active" flag; anything else is up to the editors.
type ContentRecord map[string]any

// ID returns the record id, or "" if unset.
func (r ContentRecord) ID() string {
	id, _ := r["id"].(string)
	return id
}

// IsActive reports the soft-delete flag. Records default to active.
func (r ContentRecord) IsActive() bool {
	active, ok := r["active"].(bool)
	if !ok {
		return true
	}
	return active
}

// Deactivate soft-deletes the record. It stays in storage and fetchable by
// id, but drops out of active listings.
func (r ContentRecord) Deactivate() {
	r["active"] = false
}

// Merge applies updates onto the record, last writer wins per key.
func (r ContentRecord) Merge(updates map[string]any) {
	for k, v := range updates {
		r[k] = v
	}
}

// GetString returns a top-level string field, or "" when missing or not a
// string.
func (r ContentRecord) GetString(key string) string {
	s, _ := r[key].(string)
	return s
}

// Child returns a nested object field as a ContentRecord (nil-safe: a
// missing or mistyped field yields an empty record).
func (r ContentRecord) Child(key string) ContentRecord {
	m, _ := r[key].(map[string]any)
	return ContentRecord(m)
}
