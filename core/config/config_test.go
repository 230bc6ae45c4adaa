package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()

	assert.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "iocsh> ", cfg.Prompt)
	assert.Equal(t, []string{"changeme"}, cfg.GetPasswords("operator"))
	assert.Empty(t, cfg.GetPasswords("root"))
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		mutate      func(*Configuration)
		expectedErr string
	}{
		"default": {
			mutate: func(*Configuration) {},
		},
		"port out of range": {
			mutate:      func(c *Configuration) { c.Console.Port = 70000 },
			expectedErr: "Configuration.console.port",
		},
		"unknown recording format": {
			mutate:      func(c *Configuration) { c.Console.RecordingFormat = "ttyrec" },
			expectedErr: "Configuration.console.recording_format",
		},
		"duplicate users": {
			mutate: func(c *Configuration) {
				c.Console.Users = append(c.Console.Users, User{Username: "operator"})
			},
			expectedErr: "Configuration.console.users",
		},
		"user without name": {
			mutate: func(c *Configuration) {
				c.Console.Users = append(c.Console.Users, User{})
			},
			expectedErr: "Configuration.console.users[1].username",
		},
		"missing app log": {
			mutate:      func(c *Configuration) { c.AppLog = "" },
			expectedErr: "Configuration.app_log",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.expectedErr == "" {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}
