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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-icsource/pkg/config"
	"jinr.ru/greenlab/go-icsource/pkg/log"
	"jinr.ru/greenlab/go-icsource/pkg/srv"
)

const (
	ConfigBucket   = "config"
	SessionsBucket = "sessions"
	TargetsBucket  = "targets"
	ConfigKey      = "current"
)

type State struct {
	context.Context
	DB *bbolt.DB
}

func NewState(ctx context.Context, cfg *config.Config) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(cfg.DBPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{ConfigBucket, SessionsBucket, TargetsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &State{
		Context: ctx,
		DB:      db,
	}, nil
}

// Close ...
func (s *State) Close() {
	s.DB.Close()
}

func (s *State) put(bucket, key string, value interface{}) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", bucket))
		}
		return b.Put([]byte(key), data)
	})
}

func (s *State) SaveSettings(settings *srv.Settings) error {
	log.Debug("Saving settings")
	return s.put(ConfigBucket, ConfigKey, settings)
}

// LoadSettings returns nil when nothing was saved yet.
func (s *State) LoadSettings() (*srv.Settings, error) {
	var settings *srv.Settings
	err := s.DB.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(ConfigBucket)).Get([]byte(ConfigKey))
		if data == nil {
			return nil
		}
		settings = &srv.Settings{}
		return yaml.Unmarshal(data, settings)
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *State) PutSession(session *srv.Session) error {
	log.Debug("Saving session: %s", session.ID)
	return s.put(SessionsBucket, session.ID, session)
}

func (s *State) GetSession(id string) (*srv.Session, error) {
	session := &srv.Session{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(SessionsBucket)).Get([]byte(id))
		if data == nil {
			return srv.ErrNotFound{What: fmt.Sprintf("session %s", id)}
		}
		return yaml.Unmarshal(data, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetSessions returns all sessions, oldest first.
func (s *State) GetSessions() ([]*srv.Session, error) {
	sessions := []*srv.Session{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(SessionsBucket)).ForEach(func(_, data []byte) error {
			session := &srv.Session{}
			if err := yaml.Unmarshal(data, session); err != nil {
				log.Error("Error while unmarshalling session: %s", err)
				return err
			}
			sessions = append(sessions, session)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartedAt.Before(sessions[j].StartedAt) })
	return sessions, nil
}

// PutTargets stores all records in one transaction.
func (s *State) PutTargets(targets []*srv.TargetRecord) error {
	if len(targets) == 0 {
		return nil
	}
	data := make([][]byte, len(targets))
	for i, target := range targets {
		d, err := yaml.Marshal(target)
		if err != nil {
			return err
		}
		data[i] = d
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(TargetsBucket))
		for i, target := range targets {
			if err := b.Put([]byte(target.Name), data[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *State) GetTargets() ([]*srv.TargetRecord, error) {
	targets := []*srv.TargetRecord{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(TargetsBucket)).ForEach(func(_, data []byte) error {
			target := &srv.TargetRecord{}
			if err := yaml.Unmarshal(data, target); err != nil {
				return err
			}
			targets = append(targets, target)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return targets, nil
}
