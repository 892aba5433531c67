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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"
)

type TransportConfig struct {
	// Target is an opaque transport endpoint, e.g. /dev/ttyUSB0, COM3 or emulator
	Target   string `json:"target"`
	BaudRate int    `json:"baudRate"`
	DataBits int    `json:"dataBits,omitempty"`
	StopBits int    `json:"stopBits,omitempty"`
	Parity   string `json:"parity,omitempty"`
}

type AcquisitionConfig struct {
	SampleRate     float64 `json:"sampleRate"`
	Simulate       bool    `json:"simulate"`
	Seed           int64   `json:"seed"`
	BufferCapacity int     `json:"bufferCapacity"`
	ReadSize       int     `json:"readSize"`
	IdleWaitMs     int     `json:"idleWaitMs"`
}

type APIConfig struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

type Config struct {
	Protocol    *ProtocolConfig    `json:"protocol"`
	Transport   *TransportConfig   `json:"transport"`
	Acquisition *AcquisitionConfig `json:"acquisition"`
	API         *APIConfig         `json:"api"`
	DBPath      string             `json:"dbPath"`
	LogLevel    string             `json:"logLevel"`
	filepath    string
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, DBFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		Protocol: NewDefaultProtocolConfig(),
		Transport: &TransportConfig{
			BaudRate: DefaultBaudRate,
		},
		Acquisition: &AcquisitionConfig{
			SampleRate:     DefaultSampleRate,
			Seed:           DefaultSimSeed,
			BufferCapacity: DefaultBufferCapacity,
			ReadSize:       DefaultReadSize,
			IdleWaitMs:     DefaultIdleWaitMs,
		},
		API: &APIConfig{
			IP:   DefaultAPIAddress,
			Port: DefaultAPIPort,
		},
		DBPath:   DefaultDBPath(),
		LogLevel: DefaultLogLevel,
		filepath: DefaultConfigPath(),
	}
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) SetPath(path string) {
	c.filepath = path
}

// APIAddress is host:port of the control API server.
func (c *Config) APIAddress() string {
	return fmt.Sprintf("%s:%d", c.API.IP, c.API.Port)
}

// Validate checks every section. The first violation is returned.
func (c *Config) Validate() error {
	if err := c.Protocol.Validate(); err != nil {
		return err
	}
	if err := ValidateBaudRate(c.Transport.BaudRate); err != nil {
		return err
	}
	return c.Acquisition.Validate()
}

func (a AcquisitionConfig) Validate() error {
	if err := ValidateSampleRate(a.SampleRate); err != nil {
		return err
	}
	if a.BufferCapacity <= 0 {
		return ErrInvalidConfig{Field: "buffer capacity", What: "must be positive"}
	}
	if a.ReadSize <= 0 {
		return ErrInvalidConfig{Field: "read size", What: "must be positive"}
	}
	if a.IdleWaitMs < 0 {
		return ErrInvalidConfig{Field: "idle wait", What: "must not be negative"}
	}
	return nil
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return os.WriteFile(c.filepath, data, 0644)
}

// Load reads the config file over the defaults. A missing file is not an error.
// A file with invalid values is rejected as a whole and the defaults are kept.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	loaded := NewDefaultConfig()
	loaded.filepath = c.filepath
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return err
	}
	loaded.fillMissing()
	if err := loaded.Validate(); err != nil {
		return err
	}
	*c = *loaded
	return nil
}

// fillMissing restores defaults for sections removed from the file.
func (c *Config) fillMissing() {
	d := NewDefaultConfig()
	if c.Protocol == nil {
		c.Protocol = d.Protocol
	}
	if c.Transport == nil {
		c.Transport = d.Transport
	}
	if c.Acquisition == nil {
		c.Acquisition = d.Acquisition
	}
	if c.API == nil {
		c.API = d.API
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = d.LogLevel
	}
}

// Clone returns a deep copy; sections are plain values so a field copy is enough.
func (c *Config) Clone() *Config {
	p := *c.Protocol
	t := *c.Transport
	a := *c.Acquisition
	api := *c.API
	return &Config{
		Protocol:    &p,
		Transport:   &t,
		Acquisition: &a,
		API:         &api,
		DBPath:      c.DBPath,
		LogLevel:    c.LogLevel,
		filepath:    c.filepath,
	}
}

func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	return string(data)
}
