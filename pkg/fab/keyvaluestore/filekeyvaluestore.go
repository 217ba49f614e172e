/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keyvaluestore keeps one file per key under a directory. It backs
// the client's credential store.
package keyvaluestore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/sharad-develop/fabric-node-ledger/pkg/common/providers/core"
)

const (
	newDirMode  = 0700
	newFileMode = 0600
)

// KeySerializer converts a key to a unique file path
type KeySerializer func(key interface{}) (string, error)

// Marshaller marshals a value into a byte array
type Marshaller func(value interface{}) ([]byte, error)

// Unmarshaller unmarshals a value from a byte array
type Unmarshaller func(value []byte) (interface{}, error)

// FileKeyValueStore stores each value into a separate file.
// KeySerializer maps a key to a unique file path (relative to the store path)
// Marshaller and Unmarshaller serialize a value to and from the byte array
// that is stored in the path derived from the key.
type FileKeyValueStore struct {
	path          string
	keySerializer KeySerializer
	marshaller    Marshaller
	unmarshaller  Unmarshaller
}

// FileKeyValueStoreOptions allow overriding store defaults
type FileKeyValueStoreOptions struct {
	// Store path, mandatory
	Path string
	// Optional. If not provided, default key serializer is used.
	KeySerializer KeySerializer
	// Optional. If not provided, default Marshaller is used.
	Marshaller Marshaller
	// Optional. If not provided, default Unmarshaller is used.
	Unmarshaller Unmarshaller
}

func defaultMarshaller(value interface{}) ([]byte, error) {
	valueBytes, ok := value.([]byte)
	if !ok {
		return nil, errors.New("converting value to byte array failed")
	}
	return valueBytes, nil
}

func defaultUnmarshaller(value []byte) (interface{}, error) {
	return value, nil
}

// FileName checks that key can be used as a single file name inside the store
// directory and returns it
func FileName(key string) (string, error) {
	if key == "" || key == "." || key == ".." {
		return "", errors.Errorf("invalid key [%s]", key)
	}
	if strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return "", errors.Errorf("key [%s] must not contain path separators", key)
	}
	return key, nil
}

// GetPath returns the store path
func (fkvs *FileKeyValueStore) GetPath() string {
	return fkvs.path
}

// New creates a new instance of FileKeyValueStore using provided options
func New(opts *FileKeyValueStoreOptions) (*FileKeyValueStore, error) {
	if opts == nil {
		return nil, errors.New("FileKeyValueStoreOptions is nil")
	}
	if opts.Path == "" {
		return nil, errors.New("FileKeyValueStore path is empty")
	}
	path := opts.Path
	keySerializer := opts.KeySerializer
	if keySerializer == nil {
		keySerializer = func(key interface{}) (string, error) {
			keyString, ok := key.(string)
			if !ok {
				return "", errors.New("converting key to string failed")
			}
			name, err := FileName(keyString)
			if err != nil {
				return "", err
			}
			return filepath.Join(path, name), nil
		}
	}
	marshaller := opts.Marshaller
	if marshaller == nil {
		marshaller = defaultMarshaller
	}
	unmarshaller := opts.Unmarshaller
	if unmarshaller == nil {
		unmarshaller = defaultUnmarshaller
	}
	return &FileKeyValueStore{
		path:          path,
		keySerializer: keySerializer,
		marshaller:    marshaller,
		unmarshaller:  unmarshaller,
	}, nil
}

// Load returns the value stored in the store for a key.
// If a value for the key was not found, returns (nil, ErrKeyValueNotFound)
func (fkvs *FileKeyValueStore) Load(key interface{}) (interface{}, error) {
	file, err := fkvs.keySerializer(key)
	if err != nil {
		return nil, err
	}
	bytes, err := os.ReadFile(file) // nolint: gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrKeyValueNotFound
		}
		return nil, errors.Wrapf(err, "reading %s failed", file)
	}
	if len(bytes) == 0 {
		return nil, core.ErrKeyValueNotFound
	}
	return fkvs.unmarshaller(bytes)
}

// Store sets the value for the key. The file is replaced atomically so a
// concurrent Load never observes a partial value.
func (fkvs *FileKeyValueStore) Store(key interface{}, value interface{}) error {
	if key == nil {
		return errors.New("key is nil")
	}
	if value == nil {
		return errors.New("value is nil")
	}
	file, err := fkvs.keySerializer(key)
	if err != nil {
		return err
	}
	valueBytes, err := fkvs.marshaller(value)
	if err != nil {
		return err
	}
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, newDirMode); err != nil {
		return errors.Wrapf(err, "creating %s failed", dir)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(file))
	if err != nil {
		return errors.Wrap(err, "creating temporary file failed")
	}
	defer os.Remove(tmp.Name()) // nolint: errcheck

	if _, err := tmp.Write(valueBytes); err != nil {
		tmp.Close() // nolint: errcheck
		return errors.Wrap(err, "writing value failed")
	}
	if err := tmp.Chmod(newFileMode); err != nil {
		tmp.Close() // nolint: errcheck
		return errors.Wrap(err, "setting file mode failed")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temporary file failed")
	}
	return os.Rename(tmp.Name(), file)
}

// Delete deletes the value for a key.
func (fkvs *FileKeyValueStore) Delete(key interface{}) error {
	if key == nil {
		return errors.New("key is nil")
	}
	file, err := fkvs.keySerializer(key)
	if err != nil {
		return err
	}
	err = os.Remove(file)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s failed", file)
	}
	return nil
}
