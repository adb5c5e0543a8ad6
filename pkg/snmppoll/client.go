// Package snmppoll pkg/snmppoll/client.go
package snmppoll

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/pulsewatch/pulsewatch/pkg/config"
)

const (
	defaultSNMPPort    = 161
	defaultCommunity   = "public"
	defaultSNMPTimeout = 5 * time.Second
	defaultRetries     = 3
)

// Client abstracts the SNMP transport so the poller can be tested without a
// live agent.
type Client interface {
	Connect() error
	Get(oids []string) (map[string]interface{}, error)
	Close() error
}

// ClientFactory builds a Client for a target. Overridable in tests.
type ClientFactory func(target config.SNMPTarget) (Client, error)

// snmpClient implements Client using gosnmp.
type snmpClient struct {
	client    *gosnmp.GoSNMP
	host      string
	mu        sync.Mutex
	connected bool
}

// SNMPError wraps SNMP-specific errors with additional context.
type SNMPError struct {
	Op      string
	Target  string
	Wrapped error
}

func (e *SNMPError) Error() string {
	return fmt.Sprintf("SNMP %s failed for target %s: %v", e.Op, e.Target, e.Wrapped)
}

func (e *SNMPError) Unwrap() error {
	return e.Wrapped
}

func newSNMPClient(target config.SNMPTarget) (Client, error) {
	port := target.Port
	if port == 0 {
		port = defaultSNMPPort
	}

	community := target.Community
	if community == "" {
		community = defaultCommunity
	}

	client := &gosnmp.GoSNMP{
		Target:             target.Host,
		Port:               port,
		Community:          community,
		Version:            gosnmp.Version2c,
		Timeout:            defaultSNMPTimeout,
		Retries:            defaultRetries,
		ExponentialTimeout: true,
		MaxOids:            gosnmp.MaxOids,
	}

	return &snmpClient{
		client: client,
		host:   target.Host,
	}, nil
}

// Connect implements Client.
func (s *snmpClient) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil
	}

	if err := s.client.Connect(); err != nil {
		return &SNMPError{Op: "connect", Target: s.host, Wrapped: err}
	}

	s.connected = true

	return nil
}

// Get implements Client.
func (s *snmpClient) Get(oids []string) (map[string]interface{}, error) {
	if err := s.Connect(); err != nil {
		return nil, err
	}

	result, err := s.client.Get(oids)
	if err != nil {
		s.mu.Lock()
		s.connected = false
		s.mu.Unlock()

		return nil, &SNMPError{Op: "get", Target: s.host, Wrapped: err}
	}

	values := make(map[string]interface{}, len(result.Variables))

	for _, variable := range result.Variables {
		value, err := convertVariable(variable)
		if err != nil {
			return nil, &SNMPError{Op: "convert", Target: s.host, Wrapped: err}
		}

		values[variable.Name] = value
	}

	return values, nil
}

// Close implements Client.
func (s *snmpClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	s.connected = false

	return s.client.Conn.Close()
}

// convertVariable converts an SNMP variable to the appropriate Go type.
func convertVariable(variable gosnmp.SnmpPDU) (interface{}, error) {
	switch variable.Type {
	case gosnmp.OctetString:
		return string(variable.Value.([]byte)), nil
	case gosnmp.Integer:
		return variable.Value.(int), nil
	case gosnmp.Counter32, gosnmp.Gauge32:
		return uint64(variable.Value.(uint)), nil
	case gosnmp.Counter64:
		return variable.Value.(uint64), nil
	case gosnmp.OpaqueFloat:
		return float64(variable.Value.(float32)), nil
	case gosnmp.OpaqueDouble:
		return variable.Value.(float64), nil
	default:
		return nil, fmt.Errorf("unsupported SNMP type: %v", variable.Type)
	}
}

// toFloat coerces a converted SNMP value to float64. String values are
// parsed, which covers agents that expose fixed-point readings as text.
func toFloat(v interface{}) (float64, error) {
	switch value := v.(type) {
	case float64:
		return value, nil
	case int:
		return float64(value), nil
	case uint64:
		return float64(value), nil
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric SNMP value %q: %w", value, err)
		}

		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}
