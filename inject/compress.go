package inject

import (
	"github.com/klauspost/compress/zstd"
)

// zstdCompress compresses a byte slice using zstd, appending to dst.
func zstdCompress(dst, data []byte) []byte {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		panic(err) // only fails on invalid options
	}
	defer encoder.Close()

	return encoder.EncodeAll(data, dst)
}

// zstdDecompress decompresses a zstd-compressed byte slice, appending to dst.
func zstdDecompress(dst, data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	return decoder.DecodeAll(data, dst)
}
