package lambda

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultPort is the MySQL port used when the secret does not define one.
const DefaultPort = 3306

// ConnectionDescriptor defines the secret with the database access details.
type ConnectionDescriptor struct {
	// Host database endpoint
	Host string `json:"host"`
	// Port database port, 3306 if omitted
	Port Port `json:"port,omitempty"`
	// Username database user
	Username string `json:"username"`
	// Password database user's access password
	Password string `json:"password"`
	// DatabaseName database to connect to
	DatabaseName string `json:"dbname"`
}

// Port is the database port. It decodes both JSON numbers and numeric strings.
type Port int

func (p *Port) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	s := string(data)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("port must be an integer, got " + s)
	}
	if v <= 0 || v > 65535 {
		return errors.New("port " + s + " is out of range")
	}
	*p = Port(v)
	return nil
}

// Validate checks that the fields required to connect are set.
func (d ConnectionDescriptor) Validate() error {
	var missing []string
	if d.Host == "" {
		missing = append(missing, "host")
	}
	if d.Username == "" {
		missing = append(missing, "username")
	}
	if d.Password == "" {
		missing = append(missing, "password")
	}
	if d.DatabaseName == "" {
		missing = append(missing, "dbname")
	}
	if len(missing) > 0 {
		return newError(MalformedSecret, "secret misses required keys: "+strings.Join(missing, ", "))
	}
	return nil
}

// ParseConnectionDescriptor decodes the secret payload and applies defaults.
func ParseConnectionDescriptor(payload []byte) (ConnectionDescriptor, error) {
	var d ConnectionDescriptor
	if err := json.Unmarshal(payload, &d); err != nil {
		return ConnectionDescriptor{}, wrapError(MalformedSecret, fmt.Errorf("cannot decode secret: %w", err))
	}
	if d.Port == 0 {
		d.Port = DefaultPort
	}
	if err := d.Validate(); err != nil {
		return ConnectionDescriptor{}, err
	}
	return d, nil
}
