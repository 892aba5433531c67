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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-icsource/pkg/acquisition"
	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/srv/control"
)

func newTestClient(t *testing.T, router *mux.Router) *ApiClient {
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	c := NewApiClient(config.NewDefaultConfig())
	c.ApiPrefix = server.URL + "/api"
	return c
}

func TestApiClientPrefix(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.API.IP = "10.0.0.2"
	cfg.API.Port = 9000
	assert.Equal(t, "http://10.0.0.2:9000/api", NewApiClient(cfg).ApiPrefix)
}

func TestApiClientAcquisition(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/acquisition/{action}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["action"] != "start" {
			http.Error(w, "No transport target selected", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(acquisition.Status{State: acquisition.Streaming, Message: "Streaming"})
	})
	c := newTestClient(t, router)

	status, err := c.Acquisition("start")
	require.NoError(t, err)
	assert.Equal(t, acquisition.Streaming, status.State)

	_, err = c.Acquisition("connect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "No transport target selected")
}

func TestApiClientPersistAndConfig(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/persist", func(w http.ResponseWriter, r *http.Request) {
		p := &control.Persist{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(p))
		json.NewEncoder(w).Encode(control.PersistResult{Filename: p.Dir + "/" + p.FilePrefix + ".csv"})
	}).Methods("POST")
	router.HandleFunc("/api/config/protocol", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		p := config.NewDefaultProtocolConfig()
		p.Channels = int(body["channels"].(float64))
		json.NewEncoder(w).Encode(map[string]interface{}{"protocol": p})
	}).Methods("POST")
	router.HandleFunc("/api/flush", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, router)

	filename, err := c.Persist("/data", "run")
	require.NoError(t, err)
	assert.Equal(t, "/data/run.csv", filename)

	settings, err := c.SetConfig("protocol", map[string]interface{}{"channels": 4})
	require.NoError(t, err)
	assert.Equal(t, 4, settings.Protocol.Channels)

	err = c.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
