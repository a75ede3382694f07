package db

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrRequestNotFound = errors.New("request not found")
)

// TimestampLayout is the layout of every persisted timestamp
// (UTC, millisecond precision, e.g. 2024-05-01T09:30:00.000Z).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t the way timestamps are persisted
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type User struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    string `json:"createdAt"`
}

type Request struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Request string `json:"request"`
	Status  string `json:"status"`
	Date    string `json:"date"`

	// Extra holds fields this version does not know about so that a save
	// writes them back unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

var requestFields = []string{"id", "email", "request", "status", "date"}

type plainRequest Request

func (r *Request) UnmarshalJSON(data []byte) error {
	var p plainRequest
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key := range fields {
		for _, known := range requestFields {
			// encoding/json matches struct fields case-insensitively
			if strings.EqualFold(key, known) {
				delete(fields, key)
				break
			}
		}
	}
	if len(fields) > 0 {
		p.Extra = fields
	}

	*r = Request(p)
	return nil
}

// MarshalJSON writes the known fields first, then any extra fields sorted by name
func (r Request) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(plainRequest(r))
	if err != nil || len(r.Extra) == 0 {
		return base, err
	}

	keys := make([]string, 0, len(r.Extra))
	for key := range r.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	for _, key := range keys {
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(r.Extra[key])
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}
