// Copyright 2023-2026 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package filecache provides an implementation of objtransform.Cache
// that is based on the file system. Cached entries are stored in and
// loaded from files in a specified directory.
package filecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bufbuild/objtransform"
)

// maxFilenameLength is the longest file name most file systems accept.
const maxFilenameLength = 255

// Config represents the configuration parameters used to
// create a new file-system-backed cache.
type Config struct {
	// Required: the folder in which cached files live.
	Path string
	// Defaults to "cache_" if left empty. This is added to the
	// cache key and the extension below to form a file name.
	// A trailing underscore is not necessary and will be added
	// if not present (to separate prefix from the rest of the
	// cache key).
	FilenamePrefix string
	// Defaults to ".bin" if left empty. This is added to the
	// cache key and prefix above to form a file name.
	FilenameExtension string
	// The mode to use when creating new files in the cache
	// directory. Defaults to 0600 if left zero. If not left
	// as default, the mode must have at least bits 0400 and
	// 0200 (read and write permissions for owner) set.
	FileMode fs.FileMode
}

// New creates a new file-system-backed cache with the given
// configuration.
//
// Entries are written to a temporary file that is then renamed, so
// concurrent readers, including other processes, never observe a partially
// written entry. Keys that would make for a file name longer than most file
// systems accept are replaced by a hash of the key.
func New(config Config) (objtransform.Cache, error) {
	// validate config
	if config.Path == "" {
		return nil, errors.New("path cannot be empty")
	}
	path, err := filepath.Abs(config.Path)
	if err != nil {
		return nil, err
	}
	config.Path = path
	if config.FilenamePrefix == "" {
		config.FilenamePrefix = "cache"
	} else {
		config.FilenamePrefix = strings.TrimSuffix(config.FilenamePrefix, "_")
	}
	if config.FilenameExtension == "" {
		config.FilenameExtension = ".bin"
	} else if !strings.HasPrefix(config.FilenameExtension, ".") {
		config.FilenameExtension = "." + config.FilenameExtension
	}
	if config.FileMode == 0 {
		config.FileMode = 0600
	} else if (config.FileMode & 0600) != 0600 {
		return nil, fmt.Errorf("mode %#o must include bits 0600", config.FileMode)
	}

	//  make sure we can write files to cache directory
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}
	file, err := os.CreateTemp(path, ".test-*")
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("insufficient permission to create file in %s", path)
		}
		return nil, fmt.Errorf("failed to create file in %s: %w", path, err)
	}
	closeErr := file.Close()
	rmErr := os.Remove(file.Name())
	if closeErr != nil {
		return nil, closeErr
	} else if rmErr != nil {
		return nil, rmErr
	}

	return (*cache)(&config), nil
}

type cache Config

func (c *cache) Load(_ context.Context, key string) ([]byte, error) {
	return os.ReadFile(filepath.Join(c.Path, c.fileNameForKey(key)))
}

func (c *cache) Save(_ context.Context, key string, data []byte) (err error) {
	file, err := os.CreateTemp(c.Path, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(file.Name())
		}
	}()
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Chmod(c.FileMode); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(file.Name(), filepath.Join(c.Path, c.fileNameForKey(key)))
}

func (c *cache) fileNameForKey(key string) string {
	if key != "" {
		key = "_" + sanitize(key)
	}
	name := c.FilenamePrefix + key + c.FilenameExtension
	if len(name) <= maxFilenameLength {
		return name
	}
	sum := sha256.Sum256([]byte(key))
	return c.FilenamePrefix + "_" + hex.EncodeToString(sum[:]) + c.FilenameExtension
}

func sanitize(s string) string {
	var builder strings.Builder
	hexWriter := hex.NewEncoder(&builder)
	var buf [1]byte
	for i, length := 0, len(s); i < length; i++ {
		char := s[i]
		switch {
		case char >= 'a' && char <= 'z',
			char >= 'A' && char <= 'Z',
			char >= '0' && char <= '9',
			char == '.' || char == '-' || char == '_':
			builder.WriteByte(char)
		default:
			builder.WriteByte('%')
			buf[0] = char
			_, _ = hexWriter.Write(buf[:])
		}
	}
	return builder.String()
}
