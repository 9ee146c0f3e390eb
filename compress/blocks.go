package compress

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Block framing: [flag byte][uvarint original length][body].
// flag 0 stores the body raw (incompressible input), flag 1 marks the codec's
// compressed form. Both lz4 (fragment stage) and zstd (mist stage) use the
// same frame so expansion never guesses.
const (
	frameRaw  = 0x00
	frameComp = 0x01
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) { zstdEncoderPool.Put(enc) }

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) { zstdDecoderPool.Put(dec) }

func frameHeader(flag byte, origLen int) []byte {
	buf := make([]byte, 1+binary.MaxVarintLen64)
	buf[0] = flag
	n := binary.PutUvarint(buf[1:], uint64(origLen))
	return buf[:1+n]
}

func splitFrame(frame []byte) (flag byte, origLen int, body []byte, err error) {
	if len(frame) < 2 {
		return 0, 0, nil, fmt.Errorf("compress: truncated frame (%d bytes)", len(frame))
	}
	flag = frame[0]
	size, n := binary.Uvarint(frame[1:])
	if n <= 0 {
		return 0, 0, nil, fmt.Errorf("compress: malformed frame length")
	}
	return flag, int(size), frame[1+n:], nil
}

// lz4Compress frames data with lz4 block compression, storing raw when the
// input does not compress.
func lz4Compress(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	dst := make([]byte, bound)
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("compress: lz4 block failed: %w", err)
	}
	if n == 0 || n >= len(data) {
		// Incompressible.
		return append(frameHeader(frameRaw, len(data)), data...), nil
	}
	return append(frameHeader(frameComp, len(data)), dst[:n]...), nil
}

// lz4Decompress reverses lz4Compress.
func lz4Decompress(frame []byte) ([]byte, error) {
	flag, origLen, body, err := splitFrame(frame)
	if err != nil {
		return nil, err
	}
	if flag == frameRaw {
		return body, nil
	}
	dst := make([]byte, origLen)
	n, err := lz4.UncompressBlock(body, dst)
	if err != nil {
		return nil, fmt.Errorf("compress: lz4 expand failed: %w", err)
	}
	return dst[:n], nil
}

// zstdCompress frames data with zstd, storing raw when the input does not
// compress.
func zstdCompress(data []byte) ([]byte, error) {
	enc := getZstdEncoder()
	out := enc.EncodeAll(data, nil)
	putZstdEncoder(enc)
	if len(out) >= len(data) {
		return append(frameHeader(frameRaw, len(data)), data...), nil
	}
	return append(frameHeader(frameComp, len(data)), out...), nil
}

// zstdDecompress reverses zstdCompress.
func zstdDecompress(frame []byte) ([]byte, error) {
	flag, _, body, err := splitFrame(frame)
	if err != nil {
		return nil, err
	}
	if flag == frameRaw {
		return body, nil
	}
	dec := getZstdDecoder()
	out, err := dec.DecodeAll(body, nil)
	putZstdDecoder(dec)
	if err != nil {
		return nil, fmt.Errorf("compress: zstd expand failed: %w", err)
	}
	return out, nil
}
