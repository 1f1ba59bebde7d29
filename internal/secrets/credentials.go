package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "siftin"
)

var ErrNoCredential = errors.New("no credential stored")

// UseMemory swaps the OS keychain for an in-process store. Nothing survives a restart.
func UseMemory() {
	keyring.MockInit()
}

func ConnectorAccount(connector string) string {
	return "connector:" + strings.ToLower(strings.TrimSpace(connector))
}

func GetConnectorKey(connector string) (string, error) {
	key, err := keyring.Get(KeyringService, ConnectorAccount(connector))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(key) == "" {
		return "", ErrNoCredential
	}
	return key, nil
}

func SetConnectorKey(connector, apiKey string) error {
	if strings.TrimSpace(connector) == "" {
		return errors.New("connector name is empty")
	}
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, ConnectorAccount(connector), apiKey)
}

func DeleteConnectorKey(connector string) error {
	err := keyring.Delete(KeyringService, ConnectorAccount(connector))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNoCredential
	}
	return err
}
