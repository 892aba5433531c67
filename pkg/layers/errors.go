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

package layers

import (
	"fmt"
)

// ErrTruncated returned when fewer bytes than one packet are supplied
type ErrTruncated struct {
	Have int
	Want int
}

func (e ErrTruncated) Error() string {
	return fmt.Sprintf("Packet too short: have %d bytes, want %d", e.Have, e.Want)
}

// ErrSyncMismatch returned when a packet does not start with the configured sync bytes
type ErrSyncMismatch struct {
	Sync1 uint8
	Sync2 uint8
}

func (e ErrSyncMismatch) Error() string {
	return fmt.Sprintf("Wrong packet sync: %02X %02X", e.Sync1, e.Sync2)
}

// ErrChecksumMismatch returned when the XOR checksum does not match the trailing byte
type ErrChecksumMismatch struct {
	Computed uint8
	Received uint8
}

func (e ErrChecksumMismatch) Error() string {
	return fmt.Sprintf("Wrong packet checksum: computed %02X received %02X", e.Computed, e.Received)
}
