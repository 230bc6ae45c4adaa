// Package config holds the on-disk configuration of the interpreter and its
// console server.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
	PrivateKeyName    = "private_key"
)

type Configuration struct {
	configFs afero.Fs
	// Directory the configuration was loaded from.
	configurationDir string

	Prompt        string `json:"prompt"`
	StartupScript string `json:"startup_script"`
	Macros        string `json:"macros"`
	Color         bool   `json:"color"`

	HistoryDB    string `json:"history_db"`
	HistoryLimit int    `json:"history_limit" validate:"gte=0"`

	AppLog string `json:"app_log" validate:"required"`

	Console Console `json:"console"`
}

type Console struct {
	Port            int    `json:"port" validate:"gte=0,lte=65535"`
	Banner          string `json:"banner"`
	MaxInputRate    int64  `json:"max_input_rate" validate:"gte=0"`
	Recordings      string `json:"recordings" validate:"required"`
	RecordingFormat string `json:"recording_format" validate:"oneof=asciicast uml"`

	// ReadOnly rejects commands and redirections that modify files.
	ReadOnly bool `json:"read_only"`

	Users []User `json:"users" validate:"unique=Username,dive"`
}

type User struct {
	Username  string   `json:"username" validate:"required"`
	Passwords []string `json:"passwords" validate:"unique"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// Dir returns the configuration directory.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

// CreateRecording creates a console session recording with the given name.
func (c *Configuration) CreateRecording(name string) (afero.File, error) {
	if err := c.fs().MkdirAll(c.Console.Recordings, 0700); err != nil {
		return nil, err
	}
	return c.fs().Create(filepath.Join(c.Console.Recordings, name))
}

// PrivateKeyPem returns the bytes of the console host key.
func (c *Configuration) PrivateKeyPem() ([]byte, error) {
	return afero.ReadFile(c.fs(), PrivateKeyName)
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(c.AppLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(c.AppLog, os.O_RDONLY, 0600)
}

// HistoryPath returns the OS path of the history database, empty if history
// is disabled.
func (c *Configuration) HistoryPath() string {
	if c.HistoryDB == "" {
		return ""
	}
	if filepath.IsAbs(c.HistoryDB) {
		return c.HistoryDB
	}
	return filepath.Join(c.configurationDir, c.HistoryDB)
}

// GetPasswords returns allowable console passwords for the given username.
func (c *Configuration) GetPasswords(username string) []string {
	var out []string
	for _, v := range c.Console.Users {
		if v.Username == username {
			out = append(out, v.Passwords...)
		}
	}
	return out
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
