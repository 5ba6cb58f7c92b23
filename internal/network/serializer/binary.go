package serializer

import (
	"bytes"
	"reflect"

	"github.com/lk2023060901/binser-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/binser-go/pkg/binser"
)

// BinarySerializer 使用 binser 格式编解码，是管线的默认实现。
//
// 解码采用宽松模式：无法还原的成员会被跳过，由 binser.Codec 负责记录。
type BinarySerializer struct {
	codec *binser.Codec
}

// 编译期断言：确保 BinarySerializer 实现了 Serializer 接口。
var _ Serializer = (*BinarySerializer)(nil)

func NewBinarySerializer(codec *binser.Codec) *BinarySerializer {
	if codec == nil {
		codec = binser.Default()
	}
	return &BinarySerializer{codec: codec}
}

// Marshal 编码 v。v 为非 nil 指针时编码其指向的值，与 Unmarshal 接收指针的约定对称。
func (s *BinarySerializer) Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return s.codec.Encode(v)
	}
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)
	if err := s.codec.EncodeValue(buf, rv.Elem(), rv.Type().Elem()); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.B), nil
}

func (s *BinarySerializer) Unmarshal(data []byte, v any) error {
	return s.codec.Unmarshal(data, v)
}

func (*BinarySerializer) Name() string { return KindBinary }

// Codec 返回底层 binser.Codec。
func (s *BinarySerializer) Codec() *binser.Codec {
	return s.codec
}
