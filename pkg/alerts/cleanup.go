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

package alerts

import (
	"log"
	"time"
)

// CleanupConfig defines configuration for the alert cleanup service.
type CleanupConfig struct {
	// How often to run the cleanup process.
	Interval time.Duration

	// Maximum age of resolved alerts to keep.
	Retention time.Duration
}

// CleanupService periodically deletes old RESOLVED alerts.
type CleanupService struct {
	engine *Engine
	config CleanupConfig
	stopCh chan struct{}
}

// NewCleanupService creates a new alert cleanup service.
func NewCleanupService(engine *Engine, config CleanupConfig) *CleanupService {
	if config.Interval == 0 {
		config.Interval = 1 * time.Hour
	}

	if config.Retention == 0 {
		config.Retention = DefaultRetention
	}

	return &CleanupService{
		engine: engine,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start starts the cleanup loop.
func (s *CleanupService) Start() {
	go s.run()
}

// Stop stops the cleanup loop.
func (s *CleanupService) Stop() {
	close(s.stopCh)
}

func (s *CleanupService) run() {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on start.
	s.cleanup()

	for {
		select {
		case <-s.stopCh:
			log.Println("Alert cleanup service stopped")
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *CleanupService) cleanup() {
	count, err := s.engine.Cleanup(s.config.Retention)
	if err != nil {
		log.Printf("Error cleaning up resolved alerts: %v", err)
		return
	}

	if count > 0 {
		log.Printf("Deleted %d resolved alerts older than %s", count, s.config.Retention)
	}
}
