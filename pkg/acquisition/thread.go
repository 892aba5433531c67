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

package acquisition

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/framer"
	"jinr.ru/greenlab/go-icsource/pkg/log"
	"jinr.ru/greenlab/go-icsource/pkg/transport"
)

// SourceFactory creates an unopened byte source for a target.
type SourceFactory func(target string, protocol config.ProtocolConfig, rate float64, seed int64) transport.ByteSource

type Counters struct {
	TotalSamples uint64 `json:"totalSamples"`
	Batches      uint64 `json:"batches"`
	BytesRead    uint64 `json:"bytesRead"`
	ReadErrors   uint64 `json:"readErrors"`
	LastError    string `json:"lastError,omitempty"`
}

type Status struct {
	State      State                 `json:"state"`
	Message    string                `json:"status"`
	Mode       Mode                  `json:"mode"`
	Target     string                `json:"target"`
	BaudRate   int                   `json:"baudRate"`
	SampleRate float64               `json:"sampleRate"`
	Protocol   config.ProtocolConfig `json:"protocol"`
	PacketSize int                   `json:"packetSize"`
	Buffered   int                   `json:"buffered"`
	Session    string                `json:"session,omitempty"`
	StartedAt  time.Time             `json:"startedAt,omitempty"`
	Counters   Counters              `json:"counters"`
	Framer     framer.Stats          `json:"framer"`
	Output     OutputStats           `json:"output"`
}

// Thread runs the read, parse and publish cycle on its own goroutine.
// Settings and the parse step share one mutex.
type Thread struct {
	mu        sync.Mutex
	protocol  config.ProtocolConfig
	transport config.TransportConfig
	acq       config.AcquisitionConfig

	state     State
	message   string
	source    transport.ByteSource
	simulator *Simulator
	assembler *framer.Assembler
	output    *OutputBuffer
	counters  Counters
	// timestamps are baseTs + (index-baseIndex)/rate, rebased on rate changes
	baseIndex uint64
	baseTs    float64

	session   string
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	newSource SourceFactory
}

func NewThread(cfg *config.Config) *Thread {
	t := &Thread{
		protocol:  *cfg.Protocol,
		transport: *cfg.Transport,
		acq:       *cfg.Acquisition,
		state:     Disconnected,
		message:   "Disconnected",
		assembler: framer.NewAssembler(*cfg.Protocol),
		output:    NewOutputBuffer(cfg.Protocol.Channels, cfg.Acquisition.BufferCapacity),
	}
	return t
}

func serialOrEmulator(c *config.TransportConfig) SourceFactory {
	opts := transport.PortOptionsFromConfig(c)
	return func(target string, protocol config.ProtocolConfig, rate float64, seed int64) transport.ByteSource {
		return transport.NewSource(target, opts, protocol, rate, seed)
	}
}

// SetSourceFactory replaces how byte sources are created on Connect.
// A nil factory restores the serial/emulator default.
func (t *Thread) SetSourceFactory(f SourceFactory) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.newSource = f
}

func (t *Thread) Output() *OutputBuffer {
	return t.output
}

func (t *Thread) mode() Mode {
	if t.acq.Simulate {
		return ModeSimulated
	}
	return ModeLive
}

func (t *Thread) setState(state State, format string, args ...interface{}) {
	t.state = state
	t.message = fmt.Sprintf(format, args...)
	log.Info("Acquisition %s: %s", state, t.message)
}

// Connect opens the transport, or prepares the simulator in simulated mode.
// It is a no-op when already connected.
func (t *Thread) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Disconnected {
		return nil
	}
	t.state = Connecting

	if t.acq.Simulate {
		t.simulator = NewSimulator(t.protocol.Channels, t.acq.SampleRate, t.acq.Seed)
		t.setState(Connected, "Simulating %d channels at %v Hz", t.protocol.Channels, t.acq.SampleRate)
		return nil
	}
	if t.transport.Target == "" {
		t.setState(Disconnected, "No transport target selected")
		return transport.ErrNoTarget{}
	}
	newSource := t.newSource
	if newSource == nil {
		newSource = serialOrEmulator(&t.transport)
	}
	src := newSource(t.transport.Target, t.protocol, t.acq.SampleRate, t.acq.Seed)
	if err := src.Open(t.transport.Target, t.transport.BaudRate); err != nil {
		t.setState(Disconnected, "Connection failed: %s", err)
		return err
	}
	t.source = src
	t.setState(Connected, "Connected to %s at %d baud", t.transport.Target, t.transport.BaudRate)
	return nil
}

// Disconnect stops streaming, closes the transport and clears the frame
// buffer. Calling it again is harmless.
func (t *Thread) Disconnect() error {
	t.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	var err error
	if t.source != nil {
		err = t.source.Close()
		t.source = nil
	}
	t.simulator = nil
	t.assembler.Reset()
	if t.state != Disconnected {
		t.setState(Disconnected, "Disconnected")
	}
	return err
}

// Start connects if needed, resets counters and the framer and launches the
// acquisition goroutine. The goroutine stops when ctx is done or Stop is called.
func (t *Thread) Start(ctx context.Context) error {
	if err := t.Connect(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Streaming {
		return nil
	}
	if t.state != Connected {
		return fmt.Errorf("cannot start acquisition while %s", t.state)
	}

	t.counters = Counters{}
	t.baseIndex = 0
	t.baseTs = 0
	t.assembler.Reset()
	if t.source != nil {
		if err := t.source.Flush(); err != nil {
			log.Warning("Flush %s: %s", t.transport.Target, err)
		}
	}
	if t.output.Channels() != t.protocol.Channels {
		t.output.Resize(t.protocol.Channels, t.acq.BufferCapacity)
	} else {
		t.output.Clear()
	}

	t.session = uuid.New().String()
	t.startedAt = time.Now().UTC()
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.setState(Streaming, "Streaming session %s", t.session)
	go t.run(runCtx, t.source, t.simulator, t.done)
	return nil
}

// Stop cancels the acquisition goroutine and waits for it to exit.
func (t *Thread) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Thread) run(ctx context.Context, src transport.ByteSource, sim *Simulator, done chan struct{}) {
	defer close(done)
	defer func() {
		t.mu.Lock()
		t.cancel = nil
		if t.state == Streaming {
			t.setState(Connected, "Stopped after %d samples", t.counters.TotalSamples)
		}
		t.mu.Unlock()
	}()

	t.mu.Lock()
	size := t.acq.ReadSize
	t.mu.Unlock()
	if size <= 0 {
		size = config.DefaultReadSize
	}
	buf := make([]byte, size)

	for {
		var wait time.Duration
		if sim != nil {
			wait = t.simulateCycle(sim)
		} else {
			wait = t.liveCycle(src, buf)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (t *Thread) liveCycle(src transport.ByteSource, buf []byte) time.Duration {
	n, err := src.Read(buf)
	t.mu.Lock()
	defer t.mu.Unlock()
	wait := time.Duration(t.acq.IdleWaitMs) * time.Millisecond
	if err != nil {
		t.counters.ReadErrors++
		t.counters.LastError = err.Error()
		log.Warning("Read failed: %s", err)
		return wait
	}
	if n == 0 {
		return wait
	}
	t.counters.BytesRead += uint64(n)

	packets := t.assembler.Parse(buf[:n])
	if len(packets) == 0 {
		return wait
	}
	batch := NewBatch(t.protocol.Channels, len(packets))
	for s, p := range packets {
		for ch := 0; ch < batch.NumChannels && ch < len(p.Samples); ch++ {
			batch.Data[ch*batch.NumSamples+s] = p.Samples[ch]
		}
	}
	t.publish(batch)
	return wait
}

func (t *Thread) simulateCycle(sim *Simulator) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sim.Channels() != t.protocol.Channels || sim.Rate() != t.acq.SampleRate {
		*sim = *NewSimulator(t.protocol.Channels, t.acq.SampleRate, t.acq.Seed)
	}
	if n := sim.NextCycle(); n > 0 {
		batch := NewBatch(sim.Channels(), n)
		sim.Fill(batch)
		t.publish(batch)
	}
	return config.DefaultSimIdleWaitMs * time.Millisecond
}

// publish stamps batch with sample numbers and seconds since the first
// sample and appends it to the output buffer. Caller holds t.mu.
func (t *Thread) publish(batch *Batch) {
	for s := 0; s < batch.NumSamples; s++ {
		index := t.counters.TotalSamples + uint64(s)
		batch.SampleNumbers[s] = int64(index)
		batch.Timestamps[s] = t.baseTs + float64(index-t.baseIndex)/t.acq.SampleRate
	}
	if err := t.output.Append(batch); err != nil {
		log.Warning("Drop batch: %s", err)
		return
	}
	t.counters.TotalSamples += uint64(batch.NumSamples)
	t.counters.Batches++
}

func (t *Thread) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		State:      t.state,
		Message:    t.message,
		Mode:       t.mode(),
		Target:     t.transport.Target,
		BaudRate:   t.transport.BaudRate,
		SampleRate: t.acq.SampleRate,
		Protocol:   t.protocol,
		PacketSize: t.assembler.PacketSize(),
		Buffered:   t.assembler.Buffered(),
		Session:    t.session,
		StartedAt:  t.startedAt,
		Counters:   t.counters,
		Framer:     t.assembler.Stats(),
		Output:     t.output.Stats(),
	}
}

// SetProtocol switches the packet layout. Allowed while streaming: the next
// parse uses the new layout.
func (t *Thread) SetProtocol(p config.ProtocolConfig) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.assembler.Configure(p); err != nil {
		return err
	}
	if p.Channels != t.protocol.Channels {
		t.output.Resize(p.Channels, t.acq.BufferCapacity)
	}
	t.protocol = p
	return nil
}

// SetTransport replaces target and line settings. Only while disconnected.
func (t *Thread) SetTransport(c config.TransportConfig) error {
	if _, err := transport.PortOptionsFromConfig(&c).Normalize(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Disconnected && c != t.transport {
		return ErrModeSwitch{What: "transport settings", State: t.state}
	}
	t.transport = c
	return nil
}

// SetAcquisition replaces rate, mode and buffering settings. The data
// source mode can only change while disconnected.
func (t *Thread) SetAcquisition(a config.AcquisitionConfig) error {
	if err := a.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Disconnected && a.Simulate != t.acq.Simulate {
		return ErrModeSwitch{What: "data source mode", State: t.state}
	}
	if a.BufferCapacity != t.acq.BufferCapacity {
		t.output.Resize(t.protocol.Channels, a.BufferCapacity)
	}
	rate := a.SampleRate
	a.SampleRate = t.acq.SampleRate
	t.acq = a
	t.rebase(rate)
	return nil
}

// rebase switches the sample rate so that timestamps continue from the
// last published sample. Caller holds t.mu.
func (t *Thread) rebase(rate float64) {
	if rate == t.acq.SampleRate {
		return
	}
	t.baseTs += float64(t.counters.TotalSamples-t.baseIndex) / t.acq.SampleRate
	t.baseIndex = t.counters.TotalSamples
	t.acq.SampleRate = rate
}

// Config returns the settings currently in effect.
func (t *Thread) Config() (config.ProtocolConfig, config.TransportConfig, config.AcquisitionConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.protocol, t.transport, t.acq
}
