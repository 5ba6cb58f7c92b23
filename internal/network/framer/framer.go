package framer

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"github.com/lk2023060901/binser-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/binser-go/pkg/binser"
	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

// Framer 抽象了基于 Envelope 的打包/解包能力。
//
// 约定：
//   - 一帧数据的格式为：4 字节大端无符号整型（表示后续 Envelope 编码后的长度）+ Envelope 二进制数据。
//   - Envelope 的编码与解码由 binser 负责。
type Framer interface {
	// WriteFrame 将 Envelope 打包为一帧并写入到 w 中。
	WriteFrame(w io.Writer, env *Envelope) error

	// ReadFrame 从 r 中读取一帧数据并解包为 Envelope。
	ReadFrame(r io.Reader) (*Envelope, error)
}

// LengthPrefixedFramer 使用长度前缀（4 字节大端）作为帧边界。
// 适用于基于流的连接（如 TCP、WebSocket 原始流等）。
type LengthPrefixedFramer struct {
	// MaxFrameSize 为允许的最大帧大小（Envelope 编码后长度），单位字节。
	// 为 0 时使用默认值 DefaultMaxFrameSize。
	MaxFrameSize uint32
}

// DefaultMaxFrameSize 为默认最大帧大小。
const DefaultMaxFrameSize uint32 = 16 * 1024 * 1024 // 16MB

const lengthPrefixSize = 4

var envelopeType = reflect.TypeFor[Envelope]()

// envelopeCodec 按严格模式解码 Envelope，任何多余或无法识别的内容都视为损坏。
var envelopeCodec = binser.NewCodec(binser.WithStrict(true))

// NewLengthPrefixedFramer 创建一个长度前缀帧编码器。
// maxFrameSize 为 0 时使用默认值。
func NewLengthPrefixedFramer(maxFrameSize uint32) *LengthPrefixedFramer {
	if maxFrameSize == 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &LengthPrefixedFramer{
		MaxFrameSize: maxFrameSize,
	}
}

// WriteFrame 将 Envelope 编码为长度前缀帧并写入。
func (f *LengthPrefixedFramer) WriteFrame(w io.Writer, env *Envelope) error {
	if env == nil {
		return merr.WrapErrParameterMissing("envelope", "framer.WriteFrame")
	}

	// 自动修正 size 字段，保证与 payload 长度一致。
	env.Header.Size = uint32(len(env.Payload))

	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)

	// 先预留长度前缀，编码完成后回填。
	buf.B = append(buf.B[:0], 0, 0, 0, 0)
	if err := envelopeCodec.EncodeValue(buf, reflect.ValueOf(env).Elem(), envelopeType); err != nil {
		return fmt.Errorf("framer: encode envelope failed: %w", err)
	}

	length := uint32(buf.Len() - lengthPrefixSize)
	if length > f.effectiveMaxSize() {
		return merr.WrapErrFrameTooLarge(length, f.effectiveMaxSize())
	}
	binary.BigEndian.PutUint32(buf.B[:lengthPrefixSize], length)

	if _, err := w.Write(buf.B); err != nil {
		return merr.WrapErrSinkFailed(err)
	}
	return nil
}

// ReadFrame 从流中读取一帧数据并解码为 Envelope。
func (f *LengthPrefixedFramer) ReadFrame(r io.Reader) (*Envelope, error) {
	var header [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			// 帧边界上的 EOF 原样返回，便于调用方判断流正常结束。
			return nil, err
		}
		return nil, merr.WrapErrSourceFailed(err)
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > f.effectiveMaxSize() {
		return nil, merr.WrapErrFrameTooLarge(length, f.effectiveMaxSize())
	}
	if length == 0 {
		// 空帧视为空 Envelope。
		return &Envelope{}, nil
	}

	// 使用 ByteBuffer 池降低频繁 make 带来的分配与 GC 压力。
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)

	// 确保底层切片容量足够。
	if cap(buf.B) < int(length) {
		buf.B = make([]byte, int(length))
	} else {
		buf.B = buf.B[:int(length)]
	}
	if n, err := io.ReadFull(r, buf.B); err != nil {
		return nil, merr.WrapErrTruncated(int(length), n, "framer: read body failed: "+err.Error())
	}

	// binser 解码会复制 Payload，buf 可以安全归还。
	res, err := envelopeCodec.DecodeWithReport(buf.B, envelopeType)
	if err != nil {
		return nil, fmt.Errorf("framer: decode envelope failed: %w", err)
	}
	decoded := res.Value.(Envelope)
	env := &decoded
	if env.Header.Size != uint32(len(env.Payload)) {
		return nil, merr.WrapErrCorruptStream(
			fmt.Sprintf("header size %d, payload %d", env.Header.Size, len(env.Payload)), "framer.ReadFrame")
	}
	return env, nil
}

func (f *LengthPrefixedFramer) effectiveMaxSize() uint32 {
	if f == nil || f.MaxFrameSize == 0 {
		return DefaultMaxFrameSize
	}
	return f.MaxFrameSize
}
