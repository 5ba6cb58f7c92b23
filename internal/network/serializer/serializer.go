package serializer

import (
	"strings"

	"github.com/lk2023060901/binser-go/pkg/binser"
	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

// Serializer 抽象了网络层“对象 <-> 字节流”的序列化能力。
//
// 设计目标：
//   - 默认使用 binser 二进制格式，同时支持 JSON、Protobuf、CBOR。
//   - 调用方通过接口注入具体实现，便于后续扩展其它序列化方案。
type Serializer interface {
	// Marshal 将任意对象编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象。
	//
	// v 通常为指针类型，用于接收解码结果。
	Unmarshal(data []byte, v any) error

	// Name 返回序列化方案名称，用于配置与指标标签。
	Name() string
}

const (
	KindBinary = "binary"
	KindJSON   = "json"
	KindProto  = "proto"
	KindCBOR   = "cbor"
)

// ByName 根据配置中的名称创建序列化器。
//
// codec 仅对 binary 生效，为 nil 时使用 binser.Default()。
func ByName(kind string, codec *binser.Codec) (Serializer, error) {
	switch strings.ToLower(kind) {
	case "", KindBinary:
		return NewBinarySerializer(codec), nil
	case KindJSON:
		return JSONSerializer{}, nil
	case KindProto:
		return ProtoSerializer{}, nil
	case KindCBOR:
		return NewCBORSerializer()
	default:
		return nil, merr.WrapErrPipelineMisconfig("unknown serializer "+kind, "serializer.ByName")
	}
}
