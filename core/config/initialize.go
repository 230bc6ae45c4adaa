package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"log"
	"os"

	"github.com/spf13/afero"
)

// Initialize writes a default configuration and console host key into dir if
// they don't exist yet, then loads it.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	return InitializeFs(afero.NewOsFs(), dir, logger)
}

// InitializeFs is Initialize against an arbitrary filesystem.
func InitializeFs(fs afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	configFs := afero.NewBasePathFs(fs, dir)

	logger.Printf("Initializing configuration in %q\n", dir)

	if err := writeIfNotExist(configFs, ConfigurationName, logger, func() ([]byte, error) {
		return defaultConfigData, nil
	}); err != nil {
		return nil, err
	}

	if err := writeIfNotExist(configFs, PrivateKeyName, logger, newHostKeyPem); err != nil {
		return nil, err
	}

	cfg, err := LoadFs(fs, dir)
	if err != nil {
		return nil, err
	}

	logger.Printf("- Creating directory %q\n", cfg.Console.Recordings)
	if err := configFs.MkdirAll(cfg.Console.Recordings, 0700); err != nil {
		return nil, err
	}

	return cfg, nil
}

func writeIfNotExist(fs afero.Fs, name string, logger *log.Logger, contents func() ([]byte, error)) error {
	switch _, err := fs.Stat(name); {
	case err == nil:
		logger.Printf("- Keeping existing %q\n", name)
		return nil
	case !os.IsNotExist(err):
		return err
	}

	data, err := contents()
	if err != nil {
		return err
	}
	logger.Printf("- Writing %q\n", name)
	return afero.WriteFile(fs, name, data, 0600)
}

func newHostKeyPem() ([]byte, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}
