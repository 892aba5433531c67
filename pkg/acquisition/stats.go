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
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type ChannelStat struct {
	Channel int     `json:"channel"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stdDev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// ChannelStats summarizes every channel of batch. An empty batch yields nil.
func ChannelStats(batch *Batch) []ChannelStat {
	if batch == nil || batch.NumSamples == 0 {
		return nil
	}
	out := make([]ChannelStat, batch.NumChannels)
	for ch := range out {
		x := batch.Channel(ch)
		mean, std := stat.MeanStdDev(x, nil)
		if batch.NumSamples < 2 {
			std = 0
		}
		out[ch] = ChannelStat{
			Channel: ch,
			Mean:    mean,
			StdDev:  std,
			Min:     floats.Min(x),
			Max:     floats.Max(x),
		}
	}
	return out
}
