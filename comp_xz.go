//go:build xz

package ardfs

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz"
)

func xzCompress(buf []byte) ([]byte, error) {
	var out bytes.Buffer
	w, err := xz.NewWriter(&out)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(buf); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func xzDecompress(r io.Reader, decompressedSize uint32) ([]byte, error) {
	rc, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, decompressedSize)
	if _, err := io.ReadFull(rc, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func init() {
	RegisterCompHandler(CompXZ, &CompHandler{
		Decompress: xzDecompress,
		Compress:   xzCompress,
	})
}
