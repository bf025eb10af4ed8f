package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

type SecretType string

const (
	DataSecret SecretType = "data"
	FileSecret SecretType = "file"
	EnvSecret  SecretType = "env"
)

// Secret stores configuration for secret data.
//
// Used for inserting secret values to configs like passwords.
// If you want to pass secret as plain text, use type DataSecret:
//
//	Secret{Type: DataSecret, Data: "qwerty123"}
//
// For loading secret from file you should use FileSecret type:
//
//	Secret{Type: FileSecret, Data: "db-password.txt"}
//
// For passing environment variable to secret you should use EnvSecret:
//
//	Secret{Type: EnvSecret, Data: "DB_PASSWORD"}
//
// A plain JSON string is treated as DataSecret.
type Secret struct {
	Type SecretType `json:"type"`
	Data string     `json:"data"`
}

var secretMutex sync.Mutex

// GetValue returns secret value.
func (s *Secret) GetValue() (string, error) {
	secretMutex.Lock()
	defer secretMutex.Unlock()
	switch s.Type {
	case FileSecret:
		bytes, err := os.ReadFile(s.Data)
		if err != nil {
			return "", err
		}
		s.Data, s.Type = strings.TrimRight(string(bytes), "\r\n"), DataSecret
	case EnvSecret:
		value, ok := os.LookupEnv(s.Data)
		if !ok {
			return "", fmt.Errorf("environment variable %q does not exist", s.Data)
		}
		s.Data, s.Type = value, DataSecret
	case "":
		s.Type = DataSecret
	}
	if s.Type == DataSecret {
		return s.Data, nil
	}
	return "", fmt.Errorf("unsupported secret type %q", s.Type)
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err == nil {
		s.Type, s.Data = DataSecret, value
		return nil
	}
	var secret struct {
		Type SecretType `json:"type"`
		Data string     `json:"data"`
	}
	if err := json.Unmarshal(data, &secret); err != nil {
		return err
	}
	s.Type, s.Data = secret.Type, secret.Data
	return nil
}
