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
	"io/ioutil"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// MemConfig describes the physical register window of the DUMMY core
type MemConfig struct {
	Device   string `json:"device,omitempty"`
	BaseAddr uint64 `json:"baseAddr,omitempty"`
	Size     uint64 `json:"size,omitempty"`
	// Simulated keeps the registers in process memory instead of mapping Device
	Simulated bool `json:"simulated,omitempty"`
}

type ApiConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
	// Host is where clients send API requests
	Host string `json:"host,omitempty"`
}

type RegConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
	Host    string `json:"host,omitempty"`
}

type Config struct {
	Mem      *MemConfig `json:"mem,omitempty"`
	Api      *ApiConfig `json:"api,omitempty"`
	Reg      *RegConfig `json:"reg,omitempty"`
	LogLevel string     `json:"logLevel,omitempty"`
	DBPath   string     `json:"dbPath,omitempty"`
	// ApplyOnStart makes the control server load persisted parameters and
	// apply them to the device right after mapping it
	ApplyOnStart bool `json:"applyOnStart,omitempty"`
	filepath     string
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) SetPath(path string) {
	c.filepath = path
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

	return ioutil.WriteFile(c.filepath, data, 0644)
}

// Load reads the config file over the current values
func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// ApiListenAddr ...
func (c *Config) ApiListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Api.Address, c.Api.Port)
}

// ApiURL is the prefix clients use for API requests
func (c *Config) ApiURL() string {
	return fmt.Sprintf("http://%s:%d/api", c.Api.Host, c.Api.Port)
}

// RegListenAddr ...
func (c *Config) RegListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Reg.Address, c.Reg.Port)
}

// RegURL is the address clients send register requests to
func (c *Config) RegURL() string {
	return fmt.Sprintf("%s:%d", c.Reg.Host, c.Reg.Port)
}

func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	return filepath.Join(homeDir(), ConfigDir, DBFile)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return home
}

func NewDefaultConfig() *Config {
	return &Config{
		Mem: &MemConfig{
			Device:   DefaultMemDevice,
			BaseAddr: DefaultBaseAddr,
			Size:     DefaultBaseSize,
		},
		Api: &ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
			Host:    DefaultClientHost,
		},
		Reg: &RegConfig{
			Address: DefaultRegAddress,
			Port:    DefaultRegPort,
			Host:    DefaultClientHost,
		},
		LogLevel: DefaultLogLevel,
		DBPath:   DefaultDBPath(),
		filepath: DefaultConfigPath(),
	}
}
