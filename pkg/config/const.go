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

package config

const (
	ConfigDir  = ".go-icsource"
	ConfigFile = "config"
	DBFile     = "state.db"

	DefaultLogLevel = "info"

	DefaultAPIAddress = "127.0.0.1"
	DefaultAPIPort    = 8010

	DefaultChannels       = 8
	DefaultBytesPerSample = 2
	DefaultScaleFactor    = 0.195
	DefaultSyncByte1      = 0xA0
	DefaultSyncByte2      = 0x5A
	DefaultChecksum       = true

	MinChannels = 1
	MaxChannels = 256

	DefaultSampleRate = 256.0
	MaxSampleRate     = 100000.0

	DefaultBaudRate = 115200

	// MaxFrameBufferSize caps the number of raw bytes retained between parse calls.
	MaxFrameBufferSize = 65536
	// DefaultBufferCapacity is the number of samples the output ring holds per channel.
	DefaultBufferCapacity = 100000
	// DefaultReadSize is the maximum number of bytes pulled from the transport per cycle.
	DefaultReadSize = 4096
	// DefaultIdleWaitMs is the pause between live acquisition cycles.
	DefaultIdleWaitMs = 1
	// DefaultSimIdleWaitMs paces the simulator at roughly 10 ms of data per cycle.
	DefaultSimIdleWaitMs = 10
	DefaultSimSeed       = 1
)

// StandardBaudRates is the enumerated set of transport speeds accepted by the configuration.
var StandardBaudRates = []int{9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600}

// SampleWidths maps data format names to bytes per sample.
var SampleWidths = map[string]int{
	"int16": 2,
	"int24": 3,
	"int32": 4,
}
