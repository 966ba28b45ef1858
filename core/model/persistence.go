package model

import (
	"encoding/gob"
	"os"

	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// SaveGob writes a fitted artifact to path using gob encoding.
func SaveGob(path string, value interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "lifeboat: create %s", path)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(value); err != nil {
		return errors.Wrapf(err, "lifeboat: encode %s", path)
	}
	return nil
}

// LoadGob reads a fitted artifact from path into value.
func LoadGob(path string, value interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "lifeboat: open %s", path)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(value); err != nil {
		return errors.Wrapf(err, "lifeboat: decode %s", path)
	}
	return nil
}
