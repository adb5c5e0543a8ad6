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

import "time"

// AlertStore defines the persistence operations the engine needs.
type AlertStore interface {
	CreateAlert(alert *Alert) (int64, error)
	GetAlert(id int64) (*Alert, error)
	ListAlerts(filter Filter) ([]Alert, error)

	// FindRecentOpen returns the newest alert for (deviceID, triggerType)
	// with status ACTIVE or ACKNOWLEDGED created at or after since, or nil
	// when there is none.
	FindRecentOpen(deviceID string, triggerType TriggerType, since time.Time) (*Alert, error)

	MarkAcknowledged(id int64, actor string, at time.Time) error
	MarkResolved(id int64, at time.Time) error

	// DeleteResolvedBefore removes RESOLVED alerts created before cutoff and
	// returns the number deleted.
	DeleteResolvedBefore(cutoff time.Time) (int, error)
}

// Publisher delivers alert lifecycle events to the fan-out transport.
type Publisher interface {
	Publish(topic string, data interface{})
}
