package classpulse

import (
	"bytes"
	"encoding/json"
)

// Teacher is an account that owns activities.
type Teacher struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// API request and response types (private - implementation detail)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"` // #nosec G117 - request body field, never logged
}

type registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"` // #nosec G117 - request body field, never logged
}

type loginResponse struct {
	Token string `json:"token"`
}

// ID accepts identifiers sent either as JSON numbers or strings.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}
