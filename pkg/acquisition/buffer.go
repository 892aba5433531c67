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
	"sync"
)

// Batch is a block of samples for all channels. Data is channel-major:
// Data[ch*NumSamples+s]. A batch is not modified after it is appended.
type Batch struct {
	NumSamples    int       `json:"numSamples"`
	NumChannels   int       `json:"numChannels"`
	Data          []float64 `json:"data"`
	SampleNumbers []int64   `json:"sampleNumbers"`
	Timestamps    []float64 `json:"timestamps"`
	EventWords    []uint64  `json:"eventWords"`
}

func NewBatch(channels, samples int) *Batch {
	return &Batch{
		NumSamples:    samples,
		NumChannels:   channels,
		Data:          make([]float64, channels*samples),
		SampleNumbers: make([]int64, samples),
		Timestamps:    make([]float64, samples),
		EventWords:    make([]uint64, samples),
	}
}

func (b *Batch) Sample(ch, s int) float64 {
	return b.Data[ch*b.NumSamples+s]
}

// Channel returns the samples of one channel without copying.
func (b *Batch) Channel(ch int) []float64 {
	return b.Data[ch*b.NumSamples : (ch+1)*b.NumSamples]
}

type OutputStats struct {
	Channels    int    `json:"channels"`
	Capacity    int    `json:"capacity"`
	Len         int    `json:"len"`
	Written     uint64 `json:"written"`
	Subscribers int    `json:"subscribers"`
	Dropped     uint64 `json:"dropped"`
}

// OutputBuffer keeps the most recent samples in preallocated rings and fans
// appended batches out to subscribers. One writer, any number of readers.
type OutputBuffer struct {
	mu            sync.RWMutex
	channels      int
	capacity      int
	data          []float64
	sampleNumbers []int64
	timestamps    []float64
	eventWords    []uint64
	head          int
	count         int
	written       uint64
	dropped       uint64
	subs          map[chan *Batch]struct{}
}

func NewOutputBuffer(channels, capacity int) *OutputBuffer {
	b := &OutputBuffer{
		subs: make(map[chan *Batch]struct{}),
	}
	b.allocate(channels, capacity)
	return b
}

func (b *OutputBuffer) allocate(channels, capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	b.channels = channels
	b.capacity = capacity
	b.data = make([]float64, channels*capacity)
	b.sampleNumbers = make([]int64, capacity)
	b.timestamps = make([]float64, capacity)
	b.eventWords = make([]uint64, capacity)
	b.head = 0
	b.count = 0
}

// Resize reallocates the rings. Buffered samples are lost, subscribers stay.
func (b *OutputBuffer) Resize(channels, capacity int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allocate(channels, capacity)
}

// Append stores batch and offers it to every subscriber without blocking.
// A subscriber that is not keeping up misses the batch.
func (b *OutputBuffer) Append(batch *Batch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if batch.NumChannels != b.channels {
		return ErrChannelMismatch{Have: batch.NumChannels, Want: b.channels}
	}
	for s := 0; s < batch.NumSamples; s++ {
		for ch := 0; ch < b.channels; ch++ {
			b.data[ch*b.capacity+b.head] = batch.Data[ch*batch.NumSamples+s]
		}
		b.sampleNumbers[b.head] = batch.SampleNumbers[s]
		b.timestamps[b.head] = batch.Timestamps[s]
		b.eventWords[b.head] = batch.EventWords[s]
		b.head = (b.head + 1) % b.capacity
		if b.count < b.capacity {
			b.count++
		}
	}
	b.written += uint64(batch.NumSamples)

	for ch := range b.subs {
		select {
		case ch <- batch:
		default:
			b.dropped++
		}
	}
	return nil
}

// Snapshot copies up to n of the newest samples, oldest first. n <= 0 means all.
func (b *OutputBuffer) Snapshot(n int) *Batch {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || n > b.count {
		n = b.count
	}
	out := NewBatch(b.channels, n)
	start := (b.head - n + b.capacity) % b.capacity
	for s := 0; s < n; s++ {
		idx := (start + s) % b.capacity
		for ch := 0; ch < b.channels; ch++ {
			out.Data[ch*n+s] = b.data[ch*b.capacity+idx]
		}
		out.SampleNumbers[s] = b.sampleNumbers[idx]
		out.Timestamps[s] = b.timestamps[idx]
		out.EventWords[s] = b.eventWords[idx]
	}
	return out
}

// Clear forgets buffered samples.
func (b *OutputBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.count = 0
}

func (b *OutputBuffer) Subscribe(size int) chan *Batch {
	if size <= 0 {
		size = 16
	}
	ch := make(chan *Batch, size)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (b *OutputBuffer) Unsubscribe(ch chan *Batch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *OutputBuffer) Stats() OutputStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return OutputStats{
		Channels:    b.channels,
		Capacity:    b.capacity,
		Len:         b.count,
		Written:     b.written,
		Subscribers: len(b.subs),
		Dropped:     b.dropped,
	}
}

func (b *OutputBuffer) Channels() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.channels
}
