package compressor

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

// MaxDecompressedSize 为解压结果允许的最大字节数，防止恶意报文声明超大长度。
const MaxDecompressedSize = 64 * 1024 * 1024

const (
	lz4HeaderSize = 5 // 4 字节原始长度（小端）+ 1 字节模式
	lz4ModeStored = 0
	lz4ModeBlock  = 1
)

// LZ4Compressor 使用 LZ4 块格式压缩。
//
// 报文格式：rawLen(uint32) | mode(uint8) | data
//   - mode = 1：data 为 LZ4 块
//   - mode = 0：数据不可压缩，data 为原文
type LZ4Compressor struct{}

// 编译期断言：确保 LZ4Compressor 实现了 Compressor 接口。
var _ Compressor = (*LZ4Compressor)(nil)

func NewLZ4Compressor() *LZ4Compressor {
	return &LZ4Compressor{}
}

func (*LZ4Compressor) Compress(dst, src []byte) ([]byte, error) {
	if uint64(len(src)) > MaxDecompressedSize {
		return nil, merr.WrapErrCompressFailed(KindLZ4, fmt.Errorf("input of %d bytes exceeds %d", len(src), MaxDecompressedSize))
	}
	bound := lz4.CompressBlockBound(len(src))
	out := grow(dst[:0], lz4HeaderSize+bound)
	binary.LittleEndian.PutUint32(out[:4], uint32(len(src)))

	n, err := lz4.CompressBlock(src, out[lz4HeaderSize:], nil)
	if err != nil {
		return nil, merr.WrapErrCompressFailed(KindLZ4, err)
	}
	if n == 0 || n >= len(src) {
		out[4] = lz4ModeStored
		out = append(out[:lz4HeaderSize], src...)
		return out, nil
	}
	out[4] = lz4ModeBlock
	return out[:lz4HeaderSize+n], nil
}

func (*LZ4Compressor) Decompress(dst, src []byte) ([]byte, error) {
	if len(src) < lz4HeaderSize {
		return nil, merr.WrapErrCompressFailed(KindLZ4, fmt.Errorf("packet of %d bytes is too short", len(src)))
	}
	rawLen := binary.LittleEndian.Uint32(src[:4])
	if rawLen > MaxDecompressedSize {
		return nil, merr.WrapErrCompressFailed(KindLZ4, fmt.Errorf("declared size %d exceeds %d", rawLen, MaxDecompressedSize))
	}
	body := src[lz4HeaderSize:]

	switch src[4] {
	case lz4ModeStored:
		if uint32(len(body)) != rawLen {
			return nil, merr.WrapErrCompressFailed(KindLZ4, fmt.Errorf("stored size %d, declared %d", len(body), rawLen))
		}
		return append(dst[:0], body...), nil
	case lz4ModeBlock:
		out := grow(dst[:0], int(rawLen))
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, merr.WrapErrCompressFailed(KindLZ4, err)
		}
		if uint32(n) != rawLen {
			return nil, merr.WrapErrCompressFailed(KindLZ4, fmt.Errorf("got %d bytes, declared %d", n, rawLen))
		}
		return out, nil
	default:
		return nil, merr.WrapErrCompressFailed(KindLZ4, fmt.Errorf("unknown mode %d", src[4]))
	}
}

func (*LZ4Compressor) Name() string { return KindLZ4 }

// grow 返回长度为 n 的切片，尽量复用 b 的底层容量。
func grow(b []byte, n int) []byte {
	if cap(b) >= n {
		return b[:n]
	}
	return make([]byte, n)
}
