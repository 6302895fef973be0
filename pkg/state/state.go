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

package state

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"github.com/rpsim/go-dummy/pkg/device"
	"github.com/rpsim/go-dummy/pkg/log"
	"github.com/rpsim/go-dummy/pkg/params"
)

const (
	ParamsBucket = "params"
	RegsBucket   = "regs"
)

// State persists parameter values and register snapshots
type State struct {
	DB *bbolt.DB
}

// ErrNotFound returned when there is no stored value for the key
type ErrNotFound struct {
	Bucket string
	Key    string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("Key not found: %s/%s", e.Bucket, e.Key)
}

// NewState opens (creating if needed) the database at path
func NewState(path string) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "can not open state database %s", path)
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{ParamsBucket, RegsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &State{DB: db}, nil
}

func float32ToByte(v float32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
	return b
}

func byteToFloat32(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

// Close ...
func (s *State) Close() error {
	return s.DB.Close()
}

// SetParam ...
func (s *State) SetParam(name string, value float32) error {
	log.Debug("Storing parameter: %s = %v", name, value)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(ParamsBucket)).Put([]byte(name), float32ToByte(value))
	})
}

// GetParam ...
func (s *State) GetParam(name string) (float32, error) {
	var value float32
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		valueBytes := tx.Bucket([]byte(ParamsBucket)).Get([]byte(name))
		if valueBytes == nil {
			return ErrNotFound{Bucket: ParamsBucket, Key: name}
		}
		value = byteToFloat32(valueBytes)
		return nil
	}); err != nil {
		return 0, err
	}
	return value, nil
}

// Save stores every writable parameter of the table in one transaction.
// Values read from the FPGA are not worth keeping. Returns the number of stored values.
func (s *State) Save(p params.Params) (int, error) {
	count := 0
	if err := s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(ParamsBucket))
		for i := params.IndexBase; i < len(p); i++ {
			if p[i].ReadOnly {
				continue
			}
			if err := b.Put([]byte(p[i].Name), float32ToByte(p[i].Value)); err != nil {
				return err
			}
			count++
		}
		return nil
	}); err != nil {
		return 0, err
	}
	log.Info("Saved %d parameters", count)
	return count, nil
}

// Load overwrites the table with stored values. Parameters which were
// never stored keep their current value. Returns the number of loaded values.
func (s *State) Load(p params.Params) (int, error) {
	count := 0
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(ParamsBucket))
		for i := params.IndexBase; i < len(p); i++ {
			if p[i].ReadOnly {
				continue
			}
			valueBytes := b.Get([]byte(p[i].Name))
			if valueBytes == nil {
				continue
			}
			p[i].Value = byteToFloat32(valueBytes)
			count++
		}
		return nil
	}); err != nil {
		return 0, err
	}
	log.Info("Loaded %d parameters", count)
	return count, nil
}

// SaveSnapshot stores register values under the given name
func (s *State) SaveSnapshot(name string, regs []*device.Reg) error {
	snapshot := map[string]string{}
	for _, reg := range regs {
		_, value := reg.Hex()
		snapshot[reg.Alias.String()] = value
	}
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return err
	}
	log.Debug("Storing register snapshot: %s", name)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(RegsBucket)).Put([]byte(name), data)
	})
}

// GetSnapshot returns register name to hex value map stored under name
func (s *State) GetSnapshot(name string) (map[string]string, error) {
	var data []byte
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(RegsBucket)).Get([]byte(name))
		if v == nil {
			return ErrNotFound{Bucket: RegsBucket, Key: name}
		}
		// bbolt memory is only valid inside the transaction
		data = append([]byte{}, v...)
		return nil
	}); err != nil {
		return nil, err
	}
	snapshot := map[string]string{}
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
