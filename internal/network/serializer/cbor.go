package serializer

import (
	"github.com/fxamacker/cbor/v2"
)

// CBORSerializer 基于 fxamacker/cbor 的 CBOR 编解码。
//
// 编码使用 Core Deterministic 选项，相同输入得到相同字节。
type CBORSerializer struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// 编译期断言：确保 CBORSerializer 实现了 Serializer 接口。
var _ Serializer = (*CBORSerializer)(nil)

func NewCBORSerializer() (*CBORSerializer, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	return &CBORSerializer{enc: enc, dec: dec}, nil
}

func (s *CBORSerializer) Marshal(v any) ([]byte, error) {
	return s.enc.Marshal(v)
}

func (s *CBORSerializer) Unmarshal(data []byte, v any) error {
	return s.dec.Unmarshal(data, v)
}

func (*CBORSerializer) Name() string { return KindCBOR }
