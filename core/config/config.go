package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Configuration is the host application's view of the embedded shell:
// machine identity, the seeded environment, and default shell options.
type Configuration struct {
	// Hostname reported by the virtual machine.
	Hostname string `json:"hostname" validate:"required,hostname_rfc1123"`

	// Prompt shown by the interactive shell. Supports \u (user),
	// \h (hostname), \w (working directory) and \$.
	Prompt string `json:"prompt"`

	// WorkingDir is the initial working directory of every run.
	WorkingDir string `json:"working_dir" validate:"required,startswith=/"`

	// Env seeds the environment for every run. No host-OS environment is
	// ever consumed.
	Env map[string]string `json:"env"`

	Shell ShellOptions `json:"shell"`

	History History `json:"history"`
}

// ShellOptions preset the `set` flags for every run.
type ShellOptions struct {
	ErrExit  bool `json:"errexit"`
	NoUnset  bool `json:"nounset"`
	Pipefail bool `json:"pipefail"`
}

// History configures the interactive shell's history.
type History struct {
	// MaxEntries caps the number of remembered lines. Zero disables
	// history.
	MaxEntries int `json:"max_entries" validate:"gte=0"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	if err := validate.Struct(c); err != nil {
		return err
	}

	for k := range c.Env {
		if strings.Contains(k, "=") || k == "" {
			return fmt.Errorf("env: invalid variable name %q", k)
		}
	}
	return nil
}

// EnvList renders Env in the "key=value" form used by process environments,
// sorted for determinism.
func (c *Configuration) EnvList() []string {
	var out []string
	for k, v := range c.Env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
