/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package srv

import (
	"fmt"
	"time"

	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/transport"
)

const (
	// TargetOfflineTimeout after which an undiscovered target is shown as offline
	TargetOfflineTimeout = 3 * time.Second
)

// Settings is the part of the configuration that can change at runtime and
// survives server restarts.
type Settings struct {
	Protocol    config.ProtocolConfig    `json:"protocol"`
	Transport   config.TransportConfig   `json:"transport"`
	Acquisition config.AcquisitionConfig `json:"acquisition"`
}

// Session is one Start..Stop streaming run.
type Session struct {
	ID           string    `json:"id"`
	Target       string    `json:"target"`
	Mode         string    `json:"mode"`
	Channels     int       `json:"channels"`
	SampleRate   float64   `json:"sampleRate"`
	StartedAt    time.Time `json:"startedAt"`
	StoppedAt    time.Time `json:"stoppedAt,omitempty"`
	TotalSamples uint64    `json:"totalSamples"`
	File         string    `json:"file,omitempty"`
}

// TargetRecord is a discovered transport endpoint. LastSeen is in ms since the epoch.
type TargetRecord struct {
	transport.TargetInfo
	LastSeen uint64 `json:"lastSeen"`
}

func (t *TargetRecord) String() string {
	if t.IsUSB {
		return fmt.Sprintf("%s USB %s:%s %s %s", t.Name, t.VID, t.PID, t.SerialNumber, t.Product)
	}
	return t.Name
}

func (t *TargetRecord) Online() bool {
	return !Offline(t.LastSeen, TargetOfflineTimeout)
}
