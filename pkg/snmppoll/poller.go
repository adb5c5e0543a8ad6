/*
 * Copyright 2026 PulseWatch Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package snmppoll polls SNMP targets for sensor values and feeds them into
// the ingestion pipeline. It is an optional source; devices pushing readings
// over HTTP use the same entry point.
package snmppoll

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/pulsewatch/pulsewatch/pkg/config"
	"github.com/pulsewatch/pulsewatch/pkg/ingest"
	"github.com/pulsewatch/pulsewatch/pkg/models"
)

const (
	// DefaultPollInterval is used when the config leaves poll_interval unset.
	DefaultPollInterval = 30 * time.Second

	// defaultRateLimit caps SNMP gets per second across all targets when no
	// limit is configured.
	defaultRateLimit = 10
)

// Sink receives the readings the poller produces. Satisfied by
// ingest.Coordinator.
type Sink interface {
	Ingest(req ingest.Request) (models.SensorReading, error)
}

// Poller cycles through configured SNMP targets on a fixed interval,
// converting each target's OID triplet into a sensor reading.
type Poller struct {
	cfg     config.SNMPConfig
	sink    Sink
	factory ClientFactory
	limiter *rate.Limiter

	clients map[string]Client // keyed by device ID
}

// NewPoller creates a Poller. factory may be nil to use the gosnmp client.
func NewPoller(cfg config.SNMPConfig, sink Sink, factory ClientFactory) *Poller {
	if factory == nil {
		factory = newSNMPClient
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}

	return &Poller{
		cfg:     cfg,
		sink:    sink,
		factory: factory,
		limiter: rate.NewLimiter(rate.Limit(limit), 1),
		clients: make(map[string]Client),
	}
}

// Start runs the poll loop until ctx is cancelled. Target failures are
// logged and retried on the next cycle; one bad target never stalls the
// others.
func (p *Poller) Start(ctx context.Context) error {
	interval := time.Duration(p.cfg.PollInterval)
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	log.Printf("Starting SNMP poller: %d targets, interval %s", len(p.cfg.Targets), interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer p.closeAll()

	// Poll once at startup rather than waiting a full interval.
	p.pollAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.pollAll(ctx)
		}
	}
}

func (p *Poller) pollAll(ctx context.Context) {
	for i := range p.cfg.Targets {
		target := p.cfg.Targets[i]

		if err := p.limiter.Wait(ctx); err != nil {
			return
		}

		if err := p.pollTarget(target); err != nil {
			log.Printf("SNMP poll failed for device %s: %v", target.DeviceID, err)
		}
	}
}

func (p *Poller) pollTarget(target config.SNMPTarget) error {
	client, err := p.client(target)
	if err != nil {
		return err
	}

	oids := []string{target.TemperatureOID, target.VibrationOID, target.PressureOID}

	values, err := client.Get(oids)
	if err != nil {
		// Drop the cached client so the next cycle reconnects fresh.
		delete(p.clients, target.DeviceID)
		_ = client.Close()

		return err
	}

	temp, err := lookupFloat(values, target.TemperatureOID)
	if err != nil {
		return fmt.Errorf("temperature: %w", err)
	}

	vib, err := lookupFloat(values, target.VibrationOID)
	if err != nil {
		return fmt.Errorf("vibration: %w", err)
	}

	pressure, err := lookupFloat(values, target.PressureOID)
	if err != nil {
		return fmt.Errorf("pressure: %w", err)
	}

	_, err = p.sink.Ingest(ingest.Request{
		DeviceID:    target.DeviceID,
		Temperature: &temp,
		Vibration:   &vib,
		Pressure:    &pressure,
	})

	return err
}

func (p *Poller) client(target config.SNMPTarget) (Client, error) {
	if c, ok := p.clients[target.DeviceID]; ok {
		return c, nil
	}

	c, err := p.factory(target)
	if err != nil {
		return nil, err
	}

	p.clients[target.DeviceID] = c

	return c, nil
}

func (p *Poller) closeAll() {
	for id, c := range p.clients {
		if err := c.Close(); err != nil {
			log.Printf("Error closing SNMP client for device %s: %v", id, err)
		}

		delete(p.clients, id)
	}
}

// lookupFloat finds an OID's value, tolerating the leading-dot form gosnmp
// uses in responses.
func lookupFloat(values map[string]interface{}, oid string) (float64, error) {
	v, ok := values[oid]
	if !ok {
		v, ok = values["."+oid]
	}

	if !ok {
		return 0, fmt.Errorf("no value returned for OID %s", oid)
	}

	return toFloat(v)
}
