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

package srv

import (
	"context"
	"time"

	"jinr.ru/greenlab/go-icsource/pkg/config"
)

type Server struct {
	context.Context
	*config.Config
}

// Now is the current time in milliseconds since the epoch.
func Now() uint64 {
	return uint64(time.Now().UnixNano()) * uint64(time.Nanosecond) / uint64(time.Millisecond)
}

// Offline reports whether a timestamp from Now is older than timeout.
func Offline(lastSeen uint64, timeout time.Duration) bool {
	now := Now()
	return now > lastSeen && now-lastSeen > uint64(timeout/time.Millisecond)
}
