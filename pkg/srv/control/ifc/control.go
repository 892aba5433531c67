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

package ifc

import (
	"jinr.ru/greenlab/go-icsource/pkg/acquisition"
	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/srv"
)

type ControlServer interface {
	Run() error

	Connect() error
	Disconnect() error
	// Start begins a new streaming session
	Start() error
	Stop() error
	Status() acquisition.Status
	// Snapshot returns the latest n samples, all buffered samples if n <= 0
	Snapshot(n int) *acquisition.Batch

	Settings() *srv.Settings
	SetProtocol(p config.ProtocolConfig) error
	SetTransport(t config.TransportConfig) error
	SetAcquisition(a config.AcquisitionConfig) error

	Targets() ([]*srv.TargetRecord, error)
	Sessions() ([]*srv.Session, error)

	// Persist starts recording to a new CSV file and returns its name
	Persist(dir, prefix string) (string, error)
	Flush() error
}

type ApiServer interface {
	Run() error
}
