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

package command

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-icsource/pkg/acquisition"
	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/srv"
	"jinr.ru/greenlab/go-icsource/pkg/srv/control"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s/api", cfg.APIAddress()),
	}
}

func (c *ApiClient) url(format string, args ...interface{}) string {
	return c.ApiPrefix + fmt.Sprintf(format, args...)
}

// check turns a non 200 response into an error carrying the server message
func check(r *req.Resp) error {
	if r.Response().StatusCode == http.StatusOK {
		return nil
	}
	msg := strings.TrimSpace(r.String())
	if msg == "" {
		return errors.New(r.Response().Status)
	}
	return fmt.Errorf("%s: %s", r.Response().Status, msg)
}

func (c *ApiClient) get(url string, v interface{}) error {
	r, err := req.Get(url)
	if err != nil {
		return err
	}
	if err = check(r); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return r.ToJSON(v)
}

func (c *ApiClient) post(url string, body, v interface{}) error {
	r, err := req.Post(url, req.BodyJSON(body))
	if err != nil {
		return err
	}
	if err = check(r); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return r.ToJSON(v)
}

// Status gets acquisition state and counters
func (c *ApiClient) Status() (*acquisition.Status, error) {
	status := &acquisition.Status{}
	if err := c.get(c.url("/status"), status); err != nil {
		return nil, err
	}
	return status, nil
}

// Acquisition sends one of connect, disconnect, start, stop
func (c *ApiClient) Acquisition(action string) (*acquisition.Status, error) {
	status := &acquisition.Status{}
	if err := c.get(c.url("/acquisition/%s", action), status); err != nil {
		return nil, err
	}
	return status, nil
}

func (c *ApiClient) Snapshot(n int) (*acquisition.Batch, error) {
	batch := &acquisition.Batch{}
	if err := c.get(c.url("/snapshot?n=%d", n), batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (c *ApiClient) Stats(n int) ([]acquisition.ChannelStat, error) {
	var stats []acquisition.ChannelStat
	if err := c.get(c.url("/stats?n=%d", n), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *ApiClient) Settings() (*srv.Settings, error) {
	settings := &srv.Settings{}
	if err := c.get(c.url("/config"), settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SetConfig posts a partial section: protocol, transport or acquisition.
// Fields missing from values keep their current value on the server.
func (c *ApiClient) SetConfig(section string, values map[string]interface{}) (*srv.Settings, error) {
	settings := &srv.Settings{}
	if err := c.post(c.url("/config/%s", section), values, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (c *ApiClient) Targets() ([]*srv.TargetRecord, error) {
	var targets []*srv.TargetRecord
	if err := c.get(c.url("/targets"), &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

func (c *ApiClient) Sessions() ([]*srv.Session, error) {
	var sessions []*srv.Session
	if err := c.get(c.url("/sessions"), &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Persist starts recording into a new file and returns its name
func (c *ApiClient) Persist(dirPath, filePrefix string) (string, error) {
	persist := &control.Persist{
		Dir:        dirPath,
		FilePrefix: filePrefix,
	}
	result := &control.PersistResult{}
	if err := c.post(c.url("/persist"), persist, result); err != nil {
		return "", err
	}
	return result.Filename, nil
}

// Flush closes the current recording file
func (c *ApiClient) Flush() error {
	return c.get(c.url("/flush"), nil)
}
