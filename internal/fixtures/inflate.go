package fixtures

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// zstd.Decoder is safe for concurrent use when only DecodeAll is called.
var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic("fixtures: zstd decoder initialization failed: " + err.Error())
	}
}

// Inflate decompresses gzip and zstd payloads. Anything else is returned
// unchanged (no copy).
func Inflate(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip header: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("gzip inflate: %w", err)
		}
		return out, nil
	case bytes.HasPrefix(data, zstdMagic):
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd inflate: %w", err)
		}
		return out, nil
	default:
		return data, nil
	}
}
