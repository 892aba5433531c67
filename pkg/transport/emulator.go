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
	"math"
	"math/rand"
	"sync"
	"time"

	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/layers"
	"jinr.ru/greenlab/go-icsource/pkg/log"
	"jinr.ru/greenlab/go-icsource/pkg/waveform"
)

const (
	DefaultGarbageRate = 0.01
	DefaultCorruptRate = 0.01
	// emulated device does not buffer more than this many seconds of samples
	maxBacklogSeconds = 1.0
	maxGarbageBytes   = 8
)

// EmulatorSource pretends to be a device streaming wire packets at the
// configured sample rate. It occasionally injects garbage bytes and corrupts
// checksums so the receiving framer has to resynchronize.
type EmulatorSource struct {
	mu          sync.Mutex
	format      config.ProtocolConfig
	rate        float64
	seed        int64
	GarbageRate float64
	CorruptRate float64

	now     func() time.Time
	open    bool
	start   time.Time
	emitted uint64
	gen     *waveform.Generator
	rnd     *rand.Rand
	pending []byte
	sample  []float64
	raw     []int32
}

func NewEmulatorSource(format config.ProtocolConfig, rate float64, seed int64) *EmulatorSource {
	return &EmulatorSource{
		format:      format,
		rate:        rate,
		seed:        seed,
		GarbageRate: DefaultGarbageRate,
		CorruptRate: DefaultCorruptRate,
		now:         time.Now,
	}
}

func (e *EmulatorSource) Open(target string, speed int) error {
	if err := e.format.Validate(); err != nil {
		return err
	}
	if err := config.ValidateSampleRate(e.rate); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	// 10 bits per byte on an 8N1 line
	if need := e.rate * float64(e.format.PacketSize()) * 10; speed > 0 && need > float64(speed) {
		log.Warning("Emulated stream needs %.0f baud, %d configured", need, speed)
	}
	e.open = true
	e.start = e.now()
	e.emitted = 0
	e.gen = waveform.NewGenerator(e.format.Channels, e.rate, e.seed)
	e.rnd = rand.New(rand.NewSource(e.seed + 1))
	e.pending = nil
	e.sample = make([]float64, e.format.Channels)
	e.raw = make([]int32, e.format.Channels)
	log.Info("Emulator opened: %d channels at %v Hz", e.format.Channels, e.rate)
	return nil
}

func (e *EmulatorSource) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = false
	e.pending = nil
	return nil
}

func (e *EmulatorSource) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// due is the number of samples the device has produced since Open.
func (e *EmulatorSource) due() uint64 {
	elapsed := e.now().Sub(e.start).Seconds()
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed * e.rate)
}

func (e *EmulatorSource) fill() {
	due := e.due()
	if backlog := uint64(maxBacklogSeconds * e.rate); due > e.emitted+backlog {
		e.emitted = due - backlog
	}
	for ; e.emitted < due; e.emitted++ {
		e.pending = append(e.pending, e.packet()...)
	}
}

func (e *EmulatorSource) packet() []byte {
	e.gen.Next(e.sample)
	min, max := layers.RawRange(e.format.BytesPerSample)
	for ch, v := range e.sample {
		r := math.Round(v / e.format.ScaleFactor)
		r = math.Max(float64(min), math.Min(float64(max), r))
		e.raw[ch] = int32(r)
	}
	data, err := layers.EncodePacket(e.format, e.raw)
	if err != nil {
		log.Error("Emulator: %s", err)
		return nil
	}
	if e.format.Checksum && e.rnd.Float64() < e.CorruptRate {
		data[len(data)-1] ^= 0xFF
	}
	if e.rnd.Float64() < e.GarbageRate {
		garbage := make([]byte, 1+e.rnd.Intn(maxGarbageBytes))
		e.rnd.Read(garbage)
		data = append(garbage, data...)
	}
	return data
}

func (e *EmulatorSource) Read(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return 0, ErrNotOpen{Target: EmulatorTarget}
	}
	e.fill()
	n := copy(p, e.pending)
	e.pending = e.pending[n:]
	return n, nil
}

func (e *EmulatorSource) Available() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return 0
	}
	e.fill()
	return len(e.pending)
}

// Flush drops everything produced so far.
func (e *EmulatorSource) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return ErrNotOpen{Target: EmulatorTarget}
	}
	e.pending = nil
	e.emitted = e.due()
	return nil
}

func (e *EmulatorSource) ListTargets() ([]string, error) {
	return []string{EmulatorTarget}, nil
}
