//go:build zstd

package ardfs

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

func zstdCompress(buf []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(buf, nil), nil
}

func zstdDecompress(r io.Reader, decompressedSize uint32) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	buf := make([]byte, decompressedSize)
	if _, err := io.ReadFull(dec, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func init() {
	RegisterCompHandler(CompZstd, &CompHandler{
		Decompress: zstdDecompress,
		Compress:   zstdCompress,
	})
}
