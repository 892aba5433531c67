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

package transport

import (
	"jinr.ru/greenlab/go-icsource/pkg/config"
)

// EmulatorTarget selects the built-in packet emulator instead of a serial port.
const EmulatorTarget = "emulator"

// ByteSource is a character-oriented transport endpoint. Read never blocks
// longer than one short poll and returns 0, nil when nothing is available.
type ByteSource interface {
	Open(target string, speed int) error
	Close() error
	IsOpen() bool
	Read(p []byte) (int, error)
	Available() int
	Flush() error
	ListTargets() ([]string, error)
}

// NewSource returns an unopened source for target. options configure a
// serial port; protocol and rate are used only by the emulator, which has to
// produce packets in that layout.
func NewSource(target string, options PortOptions, protocol config.ProtocolConfig, rate float64, seed int64) ByteSource {
	if target == EmulatorTarget {
		return NewEmulatorSource(protocol, rate, seed)
	}
	return NewSerialSource(options)
}
