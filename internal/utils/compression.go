package utils

import (
	"github.com/klauspost/compress/zstd"
)

// ZstdCompress compresses data using zstandard
func ZstdCompress(data []byte) ([]byte, error) {
	w, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	return w.EncodeAll(data, nil), nil
}

// ZstdDecompress decompresses zstandard data
func ZstdDecompress(data []byte) ([]byte, error) {
	r, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return r.DecodeAll(data, nil)
}
