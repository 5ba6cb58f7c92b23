package compressor

import (
	"fmt"

	"github.com/golang/snappy"

	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

// SnappyCompressor 使用 snappy 块格式，适合对延迟敏感的小报文。
type SnappyCompressor struct{}

// 编译期断言：确保 SnappyCompressor 实现了 Compressor 接口。
var _ Compressor = SnappyCompressor{}

func (SnappyCompressor) Compress(dst, src []byte) ([]byte, error) {
	bound := snappy.MaxEncodedLen(len(src))
	if bound < 0 {
		return nil, merr.WrapErrCompressFailed(KindSnappy, fmt.Errorf("input of %d bytes is too large", len(src)))
	}
	return snappy.Encode(grow(dst[:0], bound), src), nil
}

func (SnappyCompressor) Decompress(dst, src []byte) ([]byte, error) {
	// 先读取声明的解压长度，超过上限直接拒绝。
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return nil, merr.WrapErrCompressFailed(KindSnappy, err)
	}
	if n > MaxDecompressedSize {
		return nil, merr.WrapErrCompressFailed(KindSnappy, fmt.Errorf("declared size %d exceeds %d", n, MaxDecompressedSize))
	}
	out, err := snappy.Decode(grow(dst[:0], n), src)
	if err != nil {
		return nil, merr.WrapErrCompressFailed(KindSnappy, err)
	}
	return out, nil
}

func (SnappyCompressor) Name() string { return KindSnappy }
