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
	"fmt"
	"net/http"
	"strings"

	"github.com/imroc/req"
	"github.com/pkg/errors"

	"github.com/rpsim/go-dummy/pkg/config"
	"github.com/rpsim/go-dummy/pkg/params"
	"github.com/rpsim/go-dummy/pkg/srv/control"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: cfg.ApiURL(),
	}
}

func (c *ApiClient) url(format string, v ...interface{}) string {
	return c.ApiPrefix + fmt.Sprintf(format, v...)
}

// checkResp turns a non 200 response into an error carrying the server message
func checkResp(r *req.Resp) error {
	if r.Response().StatusCode != http.StatusOK {
		return errors.Errorf("%s: %s", r.Response().Status, strings.TrimSpace(r.String()))
	}
	return nil
}

func (c *ApiClient) get(url string, v interface{}) error {
	r, err := req.Get(url)
	if err != nil {
		return err
	}
	if err := checkResp(r); err != nil {
		return err
	}
	return r.ToJSON(v)
}

func (c *ApiClient) post(url string, body, v interface{}) error {
	var r *req.Resp
	var err error
	if body != nil {
		r, err = req.Post(url, req.BodyJSON(body))
	} else {
		r, err = req.Post(url)
	}
	if err != nil {
		return err
	}
	if err := checkResp(r); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return r.ToJSON(v)
}

// RegRead sends request to get the value of a register
func (c *ApiClient) RegRead(name string) (*control.RegHex, error) {
	reg := &control.RegHex{}
	if err := c.get(c.url("/reg/r/%s", name), reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// RegReadAll sends request to get values of all registers
func (c *ApiClient) RegReadAll() ([]*control.RegHex, error) {
	var regs []*control.RegHex
	if err := c.get(c.url("/reg/r"), &regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// RegWrite sends request to write the hexadecimal value to a register
func (c *ApiClient) RegWrite(name, value string) error {
	return c.post(c.url("/reg/w"), &control.RegHex{Name: name, Value: value}, nil)
}

// SaveSnapshot asks the server to store current register values under the name
func (c *ApiClient) SaveSnapshot(name string) error {
	return c.post(c.url("/reg/snapshot/%s", name), nil, nil)
}

func (c *ApiClient) Snapshot(name string) (map[string]string, error) {
	snapshot := map[string]string{}
	if err := c.get(c.url("/reg/snapshot/%s", name), &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Params returns the parameter table of the server
func (c *ApiClient) Params() ([]params.Param, error) {
	var p []params.Param
	if err := c.get(c.url("/params"), &p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetParams sets parameters by name, the server applies them to the registers
func (c *ApiClient) SetParams(values map[string]float32) ([]params.Param, error) {
	var p []params.Param
	if err := c.post(c.url("/params"), values, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// Readback reads the registers into the parameter table while sampling is frozen
func (c *ApiClient) Readback() ([]params.Param, error) {
	var p []params.Param
	if err := c.get(c.url("/params/readback"), &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *ApiClient) SaveParams() (int, error) {
	count := &control.CountResp{}
	if err := c.post(c.url("/params/save"), nil, count); err != nil {
		return 0, err
	}
	return count.Count, nil
}

func (c *ApiClient) LoadParams() (int, error) {
	count := &control.CountResp{}
	if err := c.post(c.url("/params/load"), nil, count); err != nil {
		return 0, err
	}
	return count.Count, nil
}

// Freeze ...
func (c *ApiClient) Freeze() error {
	return c.post(c.url("/freeze"), nil, nil)
}

// Restore ...
func (c *ApiClient) Restore() error {
	return c.post(c.url("/restore"), nil, nil)
}

// Reset writes register defaults
func (c *ApiClient) Reset() error {
	return c.post(c.url("/reset"), nil, nil)
}
