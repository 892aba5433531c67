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
)

// ErrNotOpen returned by operations that need an open source
type ErrNotOpen struct {
	Target string
}

func (e ErrNotOpen) Error() string {
	if e.Target == "" {
		return "Transport is not open"
	}
	return fmt.Sprintf("Transport is not open: %s", e.Target)
}

// ErrNoTarget returned when opening without a target
type ErrNoTarget struct{}

func (e ErrNoTarget) Error() string {
	return "No transport target selected"
}

// ErrOpen wraps the failure of the underlying device
type ErrOpen struct {
	Target string
	Err    error
}

func (e ErrOpen) Error() string {
	return fmt.Sprintf("Failed to open %s: %s", e.Target, e.Err)
}

func (e ErrOpen) Unwrap() error {
	return e.Err
}
