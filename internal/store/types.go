package store

import "time"

// IDSeparator joins username and app name in a derived record id.
const IDSeparator = "::"

// DateLayout is the layout used for date_added when a record is stamped.
const DateLayout = time.RFC3339

// Record is one credential as persisted. Password holds ciphertext; the
// store never sees plaintext. ID and DateAdded are optional at rest because
// older vault files were written without them.
type Record struct {
	AppName   string `json:"app_name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Vault     string `json:"vault"`
	ID        string `json:"id,omitempty"`
	DateAdded string `json:"date_added,omitempty"`
}

// DeriveID builds the best-effort identifier "username::app_name".
// It is not unique when the same account is stored twice.
func DeriveID(username, appName string) string {
	return username + IDSeparator + appName
}

// EffectiveID returns the stored id, or the derived one for records
// written before ids were persisted.
func (r Record) EffectiveID() string {
	if r.ID != "" {
		return r.ID
	}
	return DeriveID(r.Username, r.AppName)
}

// BoltMeta holds metadata for the bbolt backend.
type BoltMeta struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}
