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

package control

import (
	"context"
	"sync"
	"time"

	"jinr.ru/greenlab/go-icsource/pkg/acquisition"
	"jinr.ru/greenlab/go-icsource/pkg/capture"
	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/log"
	"jinr.ru/greenlab/go-icsource/pkg/srv"
	"jinr.ru/greenlab/go-icsource/pkg/srv/control/ifc"
	"jinr.ru/greenlab/go-icsource/pkg/transport"
)

const (
	DiscoverInterval = time.Second
)

type ControlServer struct {
	srv.Server
	thread   *acquisition.Thread
	state    *State
	recorder *capture.Recorder
	api      ifc.ApiServer
	discover func() ([]transport.TargetInfo, error)

	mu      sync.Mutex
	session *srv.Session
}

var _ ifc.ControlServer = &ControlServer{}

// NewControlServer opens the state database and restores the settings
// saved by a previous run on top of cfg.
func NewControlServer(ctx context.Context, cfg *config.Config) (*ControlServer, error) {
	log.Debug("Initializing control server with state: %s", cfg.DBPath)

	state, err := NewState(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cfg = cfg.Clone()
	settings, err := state.LoadSettings()
	if err != nil {
		log.Warning("Error while loading saved settings: %s", err)
	} else if settings != nil {
		restored := cfg.Clone()
		restored.Protocol = &settings.Protocol
		restored.Transport = &settings.Transport
		restored.Acquisition = &settings.Acquisition
		if err := restored.Validate(); err != nil {
			log.Warning("Ignore saved settings: %s", err)
		} else {
			log.Info("Restored saved settings")
			cfg = restored
		}
	}

	thread := acquisition.NewThread(cfg)
	s := &ControlServer{
		Server: srv.Server{
			Context: ctx,
			Config:  cfg,
		},
		thread:   thread,
		state:    state,
		recorder: capture.NewRecorder(thread.Output()),
		discover: transport.DescribeTargets,
	}

	apiServer, err := NewApiServer(ctx, cfg, s)
	if err != nil {
		state.Close()
		return nil, err
	}
	s.api = apiServer
	return s, nil
}

// Run serves the API until the context is done. Acquisition is stopped and
// the transport closed on exit.
func (s *ControlServer) Run() error {
	defer s.state.Close()

	go s.recorder.Run(s.Context)
	go s.runDiscover()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.api.Run()
	}()

	var err error
	select {
	case <-s.Context.Done():
		err = s.Context.Err()
	case err = <-errChan:
		log.Error("API server failed: %s", err)
	}
	if discErr := s.Disconnect(); discErr != nil {
		log.Warning("Error while disconnecting: %s", discErr)
	}
	return err
}

func (s *ControlServer) runDiscover() {
	s.discoverOnce()
	ticker := time.NewTicker(DiscoverInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.Context.Done():
			return
		case <-ticker.C:
			s.discoverOnce()
		}
	}
}

func (s *ControlServer) discoverOnce() {
	targets, err := s.discover()
	if err != nil {
		log.Debug("Discover failed: %s", err)
		return
	}
	now := srv.Now()
	records := make([]*srv.TargetRecord, 0, len(targets))
	for _, t := range targets {
		records = append(records, &srv.TargetRecord{TargetInfo: t, LastSeen: now})
	}
	if err := s.state.PutTargets(records); err != nil {
		log.Error("Error while saving %d targets: %s", len(records), err)
	}
}

func (s *ControlServer) Connect() error {
	return s.thread.Connect()
}

func (s *ControlServer) Disconnect() error {
	if err := s.Stop(); err != nil {
		log.Warning("Error while closing session: %s", err)
	}
	return s.thread.Disconnect()
}

func (s *ControlServer) Start() error {
	if err := s.thread.Start(s.Context); err != nil {
		return err
	}
	status := s.thread.Status()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil && s.session.ID == status.Session {
		return nil
	}
	s.session = &srv.Session{
		ID:         status.Session,
		Target:     status.Target,
		Mode:       string(status.Mode),
		Channels:   status.Protocol.Channels,
		SampleRate: status.SampleRate,
		StartedAt:  status.StartedAt,
		File:       s.recorder.Current(),
	}
	return s.state.PutSession(s.session)
}

// Stop ends streaming and closes the session record. The transport stays open.
func (s *ControlServer) Stop() error {
	s.thread.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	s.session.StoppedAt = time.Now().UTC()
	s.session.TotalSamples = s.thread.Status().Counters.TotalSamples
	err := s.state.PutSession(s.session)
	s.session = nil
	return err
}

func (s *ControlServer) Status() acquisition.Status {
	return s.thread.Status()
}

func (s *ControlServer) Snapshot(n int) *acquisition.Batch {
	return s.thread.Output().Snapshot(n)
}

func (s *ControlServer) Settings() *srv.Settings {
	p, t, a := s.thread.Config()
	return &srv.Settings{Protocol: p, Transport: t, Acquisition: a}
}

func (s *ControlServer) saveSettings() error {
	return s.state.SaveSettings(s.Settings())
}

func (s *ControlServer) SetProtocol(p config.ProtocolConfig) error {
	if err := s.thread.SetProtocol(p); err != nil {
		return err
	}
	return s.saveSettings()
}

func (s *ControlServer) SetTransport(t config.TransportConfig) error {
	if err := s.thread.SetTransport(t); err != nil {
		return err
	}
	return s.saveSettings()
}

func (s *ControlServer) SetAcquisition(a config.AcquisitionConfig) error {
	if err := s.thread.SetAcquisition(a); err != nil {
		return err
	}
	return s.saveSettings()
}

func (s *ControlServer) Targets() ([]*srv.TargetRecord, error) {
	return s.state.GetTargets()
}

func (s *ControlServer) Sessions() ([]*srv.Session, error) {
	return s.state.GetSessions()
}

func (s *ControlServer) Persist(dir, prefix string) (string, error) {
	_, t, _ := s.thread.Config()
	filename, err := s.recorder.Persist(dir, prefix, t.Target)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.File = filename
		if err := s.state.PutSession(s.session); err != nil {
			log.Warning("Error while saving session: %s", err)
		}
	}
	return filename, nil
}

func (s *ControlServer) Flush() error {
	return s.recorder.Flush()
}
