package wire

import (
	"bytes"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/grpc/encoding"
	// registers the "gzip" compressor
	_ "google.golang.org/grpc/encoding/gzip"
)

// Compressor names accepted by Compression.
const (
	CompressionNone   = ""
	CompressionGzip   = "gzip"
	CompressionZstd   = "zstd"
	CompressionSnappy = "snappy"
)

// ValidCompression reports whether name is a registered compressor or none.
func ValidCompression(name string) bool {
	if name == CompressionNone {
		return true
	}
	return encoding.GetCompressor(name) != nil
}

// zstdCompressor compresses whole messages with shared single-threaded
// encoder and decoder, so no background goroutines are left running.
type zstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdCompressor() (*zstdCompressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return &zstdCompressor{enc: enc, dec: dec}, nil
}

func (c *zstdCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return &zstdWriter{c: c, w: w}, nil
}

func (c *zstdCompressor) Decompress(r io.Reader) (io.Reader, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	out, err := c.dec.DecodeAll(src, nil)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(out), nil
}

func (c *zstdCompressor) Name() string {
	return CompressionZstd
}

type zstdWriter struct {
	c   *zstdCompressor
	w   io.Writer
	buf bytes.Buffer
}

func (z *zstdWriter) Write(p []byte) (int, error) {
	return z.buf.Write(p)
}

func (z *zstdWriter) Close() error {
	_, err := z.w.Write(z.c.enc.EncodeAll(z.buf.Bytes(), nil))
	return err
}

type snappyCompressor struct{}

func (snappyCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return snappy.NewBufferedWriter(w), nil
}

func (snappyCompressor) Decompress(r io.Reader) (io.Reader, error) {
	return snappy.NewReader(r), nil
}

func (snappyCompressor) Name() string {
	return CompressionSnappy
}

func init() {
	z, err := newZstdCompressor()
	if err != nil {
		panic(err)
	}
	encoding.RegisterCompressor(z)
	encoding.RegisterCompressor(snappyCompressor{})
}
