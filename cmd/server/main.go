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

// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/pulsewatch/pulsewatch/pkg/alerts"
	"github.com/pulsewatch/pulsewatch/pkg/api"
	"github.com/pulsewatch/pulsewatch/pkg/batch"
	"github.com/pulsewatch/pulsewatch/pkg/config"
	"github.com/pulsewatch/pulsewatch/pkg/db"
	"github.com/pulsewatch/pulsewatch/pkg/ingest"
	"github.com/pulsewatch/pulsewatch/pkg/lifecycle"
	"github.com/pulsewatch/pulsewatch/pkg/models"
	"github.com/pulsewatch/pulsewatch/pkg/snmppoll"
	"github.com/pulsewatch/pulsewatch/pkg/timeline"
	"github.com/pulsewatch/pulsewatch/pkg/ws"
)

func main() {
	configPath := flag.String("config", "/etc/pulsewatch/server.json", "Path to config file")
	flag.Parse()

	var cfg config.ServerConfig
	if err := config.LoadAndValidate(*configPath, &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	svc, err := newMonitoringService(&cfg)
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}

	if err := lifecycle.RunServer(context.Background(), &lifecycle.ServerOptions{
		ServiceName: "pulsewatch",
		Service:     svc,
		GrpcAddr:    cfg.GrpcAddr,
	}); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// monitoringService wires the full pipeline: ingestion, timeline inference,
// batch persistence, alerting, and the HTTP/WebSocket surface.
type monitoringService struct {
	cfg         *config.ServerConfig
	database    db.Service
	hub         *ws.Hub
	engine      *alerts.Engine
	tl          *timeline.Manager
	queue       *batch.Queue
	coordinator *ingest.Coordinator
	cleanup     *alerts.CleanupService
	apiServer   *api.Server
	poller      *snmppoll.Poller
}

func newMonitoringService(cfg *config.ServerConfig) (*monitoringService, error) {
	database, err := db.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub()

	engine := alerts.NewEngine(
		alerts.NewStore(database.Conn()),
		hub,
		nil,
		time.Duration(cfg.Alerts.DedupWindow),
	)

	// Each inference result fans out to live subscribers and through the
	// predictive alert path. The snapshot carries the last reading of the
	// drained window.
	onState := func(state models.DeviceHealthState, window []models.SensorReading) {
		hub.Publish(timeline.TopicHealth, state)
		hub.Publish(timeline.TopicHealth+":"+state.DeviceID, state)

		snapshot := alerts.SensorSnapshot{}
		if len(window) > 0 {
			last := window[len(window)-1]
			snapshot.Temperature = last.Temperature
			snapshot.Vibration = last.Vibration
			snapshot.Pressure = last.Pressure
		}

		if _, err := engine.RaiseFromInference(state, snapshot); err != nil {
			log.Printf("Failed to raise alert for device %s: %v", state.DeviceID, err)
		}
	}

	tl := timeline.NewManager(timeline.Config{
		WindowSize: cfg.Timeline.WindowSize,
		Timeout:    time.Duration(cfg.Timeline.Timeout),
	}, nil, onState)

	queue := batch.NewQueue(batch.Config{
		BatchSize: cfg.Batch.BatchSize,
		Timeout:   time.Duration(cfg.Batch.Timeout),
	}, nil, database)

	coordinator := ingest.NewCoordinator(database, tl, queue, hub, engine)

	cleanup := alerts.NewCleanupService(engine, alerts.CleanupConfig{
		Interval:  time.Duration(cfg.Alerts.CleanupInterval),
		Retention: time.Duration(cfg.Alerts.Retention),
	})

	svc := &monitoringService{
		cfg:         cfg,
		database:    database,
		hub:         hub,
		engine:      engine,
		tl:          tl,
		queue:       queue,
		coordinator: coordinator,
		cleanup:     cleanup,
		apiServer:   api.NewServer(coordinator, database, engine, hub),
	}

	if cfg.SNMP != nil && cfg.SNMP.Enabled {
		svc.poller = snmppoll.NewPoller(*cfg.SNMP, coordinator, nil)
	}

	return svc, nil
}

// defaultReadingsRetention bounds how long raw readings are kept.
const defaultReadingsRetention = 24 * time.Hour

// Start runs the service until the listener fails or ctx is cancelled.
func (s *monitoringService) Start(ctx context.Context) error {
	s.cleanup.Start()

	go s.coordinator.Monitor(ctx, time.Duration(s.cfg.MonitorInterval))
	go s.cleanReadings(ctx)

	if s.poller != nil {
		go func() {
			if err := s.poller.Start(ctx); err != nil && ctx.Err() == nil {
				log.Printf("SNMP poller stopped: %v", err)
			}
		}()
	}

	log.Printf("Starting HTTP server on %s", s.cfg.ListenAddr)

	return s.apiServer.Start(s.cfg.ListenAddr)
}

// cleanReadings hourly deletes readings past the retention period.
func (s *monitoringService) cleanReadings(ctx context.Context) {
	retention := time.Duration(s.cfg.ReadingsRetention)
	if retention <= 0 {
		retention = defaultReadingsRetention
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.database.CleanOldReadings(retention); err != nil {
				log.Printf("Error cleaning old readings: %v", err)
			}
		}
	}
}

// Stop shuts the pipeline down in dependency order: stop accepting work,
// flush pending batches, then release storage.
func (s *monitoringService) Stop(ctx context.Context) error {
	if err := s.apiServer.Stop(ctx); err != nil {
		log.Printf("Error stopping HTTP server: %v", err)
	}

	s.cleanup.Stop()
	s.tl.Stop()
	s.coordinator.FlushAll()
	s.hub.Close()

	return s.database.Close()
}
