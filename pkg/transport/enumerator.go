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
	"fmt"
	"sort"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"jinr.ru/greenlab/go-icsource/pkg/log"
)

// TargetInfo describes one transport endpoint found on this host.
type TargetInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"isUSB"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	Product      string `json:"product,omitempty"`
}

// DescribeTargets lists serial ports with USB details where the platform
// provides them, followed by the emulator.
func DescribeTargets() ([]TargetInfo, error) {
	var targets []TargetInfo
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.Debug("Detailed port list failed, falling back to names: %s", err)
		names, err := serial.GetPortsList()
		if err != nil {
			return nil, fmt.Errorf("failed to list serial ports: %w", err)
		}
		for _, name := range names {
			targets = append(targets, TargetInfo{Name: name})
		}
	} else {
		for _, d := range details {
			targets = append(targets, TargetInfo{
				Name:         d.Name,
				IsUSB:        d.IsUSB,
				VID:          d.VID,
				PID:          d.PID,
				SerialNumber: d.SerialNumber,
				Product:      d.Product,
			})
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })
	targets = append(targets, TargetInfo{Name: EmulatorTarget})
	return targets, nil
}

// ListTargets returns target names usable with Open.
func ListTargets() ([]string, error) {
	targets, err := DescribeTargets()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.Name)
	}
	return names, nil
}
