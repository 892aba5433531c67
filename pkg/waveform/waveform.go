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

package waveform

import (
	"math"
	"math/rand"
)

const (
	AlphaHz        = 10.0
	AlphaAmplitude = 50.0
	BetaHz         = 20.0
	BetaAmplitude  = 20.0
	ChannelPhase   = 0.1
	NoiseStep      = 0.2
)

// Generator produces an EEG-like test signal: a 10 Hz alpha and a 20 Hz beta
// component mixed per channel by a phase offset, plus uniform noise in
// [-10, 10) in 0.2 steps. Not safe for concurrent use.
type Generator struct {
	rnd      *rand.Rand
	channels int
	rate     float64
	phase    float64
}

func NewGenerator(channels int, rate float64, seed int64) *Generator {
	return &Generator{
		rnd:      rand.New(rand.NewSource(seed)),
		channels: channels,
		rate:     rate,
	}
}

func (g *Generator) Channels() int {
	return g.channels
}

// Next fills out with one sample per channel and advances time by 1/rate.
// out must hold at least Channels values.
func (g *Generator) Next(out []float64) {
	alpha := AlphaAmplitude * math.Sin(2*math.Pi*AlphaHz*g.phase)
	beta := BetaAmplitude * math.Sin(2*math.Pi*BetaHz*g.phase)
	for ch := 0; ch < g.channels; ch++ {
		noise := float64(g.rnd.Intn(100)-50) * NoiseStep
		offset := float64(ch) * ChannelPhase
		out[ch] = alpha*math.Cos(offset) + beta*math.Sin(offset) + noise
	}
	g.phase += 1 / g.rate
}

// Phase is the signal time in seconds of the next sample.
func (g *Generator) Phase() float64 {
	return g.phase
}
