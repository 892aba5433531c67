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

package codec

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	None = "none"
	Zstd = "zstd"
	Gzip = "gzip"
)

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	gzipMagic = []byte{0x1F, 0x8B}
)

// ErrUnsupported returned for an unknown codec name
type ErrUnsupported struct {
	Name string
}

func (e ErrUnsupported) Error() string {
	return fmt.Sprintf("Unsupported codec: %s", e.Name)
}

// Codec decompresses whole capture files.
type Codec interface {
	Name() string
	IsAvailable() bool
	Decompress(data []byte) ([]byte, error)
}

type noneCodec struct{}

func (noneCodec) Name() string                           { return None }
func (noneCodec) IsAvailable() bool                      { return true }
func (noneCodec) Decompress(data []byte) ([]byte, error) { return data, nil }

type zstdCodec struct {
	once    sync.Once
	decoder *zstd.Decoder
	err     error
}

func (c *zstdCodec) Name() string {
	return Zstd
}

func (c *zstdCodec) init() {
	c.once.Do(func() {
		c.decoder, c.err = zstd.NewReader(nil)
	})
}

func (c *zstdCodec) IsAvailable() bool {
	c.init()
	return c.err == nil
}

func (c *zstdCodec) Decompress(data []byte) ([]byte, error) {
	c.init()
	if c.err != nil {
		return nil, c.err
	}
	out, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}

type gzipCodec struct{}

func (gzipCodec) Name() string      { return Gzip }
func (gzipCodec) IsAvailable() bool { return true }

func (gzipCodec) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return out, nil
}

var registry = map[string]Codec{
	None: noneCodec{},
	Zstd: &zstdCodec{},
	Gzip: gzipCodec{},
}

// ByName returns the codec registered under name; empty means none.
func ByName(name string) (Codec, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = None
	}
	c, ok := registry[name]
	if !ok {
		return nil, ErrUnsupported{Name: name}
	}
	return c, nil
}

// Detect picks a codec from the leading magic bytes.
func Detect(data []byte) Codec {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return registry[Zstd]
	case bytes.HasPrefix(data, gzipMagic):
		return registry[Gzip]
	}
	return registry[None]
}

func Names() []string {
	return []string{None, Zstd, Gzip}
}
