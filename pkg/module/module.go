/*
Copyright 2022 Red Hat

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package module implements the Ansible binary module protocol: the host
// process invokes the executable with the path to a JSON args file, and the
// executable prints exactly one JSON result record on stdout. Everything
// else, including all logging, goes to stderr.
package module

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Result - the record written to stdout for the host process.
type Result struct {
	Changed           bool                   `json:"changed"`
	ID                string                 `json:"id,omitempty"`
	Msg               string                 `json:"msg,omitempty"`
	Failed            bool                   `json:"failed,omitempty"`
	Outputs           map[string]interface{} `json:"outputs,omitempty"`
	ParameterDefaults string                 `json:"parameter_defaults,omitempty"`
}

// Module - one invocation of a binary module.
type Module struct {
	Name string
	Log  logr.Logger

	out  io.Writer
	exit func(int)
	raw  []byte
}

// New - build a module invocation with a stderr logger carrying a
// correlation ID, so concurrent plays can be told apart in the host's logs.
func New(name string) *Module {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	zl, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}

	log := zapr.NewLogger(zl).WithName(name).WithValues("invocation", uuid.New().String())
	return &Module{Name: name, Log: log, out: os.Stdout, exit: os.Exit}
}

// ReadArgs - load and decode the args file the host process hands us. The
// raw document is retained so optional fields can be probed afterwards.
func (m *Module) ReadArgs(path string, params interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading module args file")
	}
	if err := json.Unmarshal(raw, params); err != nil {
		return errors.Wrap(err, "decoding module args")
	}
	m.raw = raw
	return nil
}

// CheckMode - the host's dry-run flag.
func (m *Module) CheckMode() bool {
	return gjson.GetBytes(m.raw, "_ansible_check_mode").Bool()
}

// HasArg - whether the args file carried the key at all, so an optional
// field can be told apart from an explicit zero value.
func (m *Module) HasArg(key string) bool {
	return gjson.GetBytes(m.raw, key).Exists()
}

// ExitJSON - write the result record and finish the invocation.
func (m *Module) ExitJSON(result Result) {
	m.write(result)
	m.exit(0)
}

// FailJSON - report a fatal error to the host process. The invocation ends
// with a single terminal outcome; there is no partial-success reporting.
func (m *Module) FailJSON(err error) {
	m.Log.Error(err, "module failed")
	m.write(Result{Failed: true, Msg: err.Error()})
	m.exit(1)
}

func (m *Module) write(result Result) {
	if err := json.NewEncoder(m.out).Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "encoding result: %v\n", err)
		m.exit(1)
	}
}
