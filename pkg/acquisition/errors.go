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
	"fmt"
)

// ErrModeSwitch returned when a setting can only change while disconnected
type ErrModeSwitch struct {
	What  string
	State State
}

func (e ErrModeSwitch) Error() string {
	return fmt.Sprintf("Cannot change %s while %s", e.What, e.State)
}

// ErrChannelMismatch returned when a batch does not fit the output buffer layout
type ErrChannelMismatch struct {
	Have int
	Want int
}

func (e ErrChannelMismatch) Error() string {
	return fmt.Sprintf("Batch has %d channels, buffer has %d", e.Have, e.Want)
}
