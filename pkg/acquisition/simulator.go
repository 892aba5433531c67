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
	"jinr.ru/greenlab/go-icsource/pkg/waveform"
)

// Simulator produces roughly 10 ms of synthetic samples per cycle.
type Simulator struct {
	gen     *waveform.Generator
	rate    float64
	sample  []float64
	cycles  uint64
	emitted uint64
}

func NewSimulator(channels int, rate float64, seed int64) *Simulator {
	return &Simulator{
		gen:    waveform.NewGenerator(channels, rate, seed),
		rate:   rate,
		sample: make([]float64, channels),
	}
}

func (s *Simulator) Channels() int {
	return s.gen.Channels()
}

func (s *Simulator) Rate() float64 {
	return s.rate
}

// NextCycle returns how many samples are due in the next cycle. Over k
// cycles the total is floor(k*rate/100), so fractional rates are carried
// instead of truncated. Cycles with nothing due return 0.
func (s *Simulator) NextCycle() int {
	s.cycles++
	due := uint64(float64(s.cycles) * s.rate / 100)
	n := due - s.emitted
	s.emitted = due
	return int(n)
}

// Fill writes batch.NumSamples samples for every channel into batch.Data.
func (s *Simulator) Fill(batch *Batch) {
	for i := 0; i < batch.NumSamples; i++ {
		s.gen.Next(s.sample)
		for ch, v := range s.sample {
			batch.Data[ch*batch.NumSamples+i] = v
		}
	}
}
