// Package integrations tracks CRM connectors. Keys live in the keyring; no
// connector ever talks to a real API.
package integrations

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"siftin-engine/internal/domain"
	"siftin-engine/internal/secrets"
)

type Status string

const (
	StatusNotConnected Status = "Not Connected"
	StatusConnected    Status = "Connected"
	StatusError        Status = "Error"
)

type Connector struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Features    []string `json:"features"`
	Error       string   `json:"error,omitempty"`
}

var catalog = []Connector{
	{Name: "HubSpot", Description: "Sync leads directly to your HubSpot CRM with custom field mapping"},
	{Name: "Salesforce", Description: "Export leads to Salesforce with automated lead assignment rules"},
	{Name: "Pipedrive", Description: "Create deals and contacts in Pipedrive with custom stages"},
	{Name: "Zapier", Description: "Connect to 3000+ apps through Zapier automation workflows"},
}

var features = []string{
	"Automatic lead sync",
	"Custom field mapping",
	"Duplicate detection",
	"Real-time status updates",
}

type Service struct {
	log *zap.Logger

	mu     sync.Mutex
	failed map[string]string
}

func NewService(log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{log: log.Named("integrations"), failed: map[string]string{}}
}

func lookup(name string) (Connector, bool) {
	for _, c := range catalog {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return Connector{}, false
}

func unknown(name string) error {
	return fmt.Errorf("%w: connector %q", domain.ErrNotFound, name)
}

func (s *Service) List() []Connector {
	out := make([]Connector, 0, len(catalog))
	for _, c := range catalog {
		out = append(out, s.describe(c))
	}
	return out
}

func (s *Service) Get(name string) (Connector, error) {
	c, ok := lookup(name)
	if !ok {
		return Connector{}, unknown(name)
	}
	return s.describe(c), nil
}

func (s *Service) describe(c Connector) Connector {
	c.Features = append([]string(nil), features...)
	c.Status = StatusNotConnected

	s.mu.Lock()
	msg, failed := s.failed[c.Name]
	s.mu.Unlock()
	if failed {
		c.Status = StatusError
		c.Error = msg
		return c
	}

	_, err := secrets.GetConnectorKey(c.Name)
	switch {
	case err == nil:
		c.Status = StatusConnected
	case !errors.Is(err, secrets.ErrNoCredential):
		c.Status = StatusError
		c.Error = err.Error()
	}
	return c
}

// Connect stores apiKey for the connector. A keyring failure leaves the
// connector in the Error state until the next successful connect.
func (s *Service) Connect(name, apiKey string) (Connector, error) {
	c, ok := lookup(name)
	if !ok {
		return Connector{}, unknown(name)
	}
	apiKey = strings.TrimSpace(apiKey)
	if len(apiKey) < 8 {
		return Connector{}, domain.Invalidf("%s API key must be at least 8 characters", c.Name)
	}

	if err := secrets.SetConnectorKey(c.Name, apiKey); err != nil {
		s.mu.Lock()
		s.failed[c.Name] = err.Error()
		s.mu.Unlock()
		s.log.Warn("store connector key", zap.String("connector", c.Name), zap.Error(err))
		return s.describe(c), fmt.Errorf("store %s key: %w", c.Name, err)
	}
	s.mu.Lock()
	delete(s.failed, c.Name)
	s.mu.Unlock()
	s.log.Info("connector connected", zap.String("connector", c.Name))
	return s.describe(c), nil
}

func (s *Service) Disconnect(name string) (Connector, error) {
	c, ok := lookup(name)
	if !ok {
		return Connector{}, unknown(name)
	}
	s.mu.Lock()
	delete(s.failed, c.Name)
	s.mu.Unlock()

	err := secrets.DeleteConnectorKey(c.Name)
	if errors.Is(err, secrets.ErrNoCredential) {
		return Connector{}, fmt.Errorf("%w: %s is not connected", domain.ErrConflict, c.Name)
	}
	if err != nil {
		return Connector{}, err
	}
	s.log.Info("connector disconnected", zap.String("connector", c.Name))
	return s.describe(c), nil
}
