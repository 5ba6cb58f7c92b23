package codec

import (
	"encoding/binary"
	"io"

	"go.uber.org/zap"

	"github.com/lk2023060901/binser-go/internal/network"
	"github.com/lk2023060901/binser-go/internal/network/compressor"
	"github.com/lk2023060901/binser-go/internal/network/crypto"
	"github.com/lk2023060901/binser-go/internal/network/framer"
	"github.com/lk2023060901/binser-go/internal/network/serializer"
	"github.com/lk2023060901/binser-go/pkg/binser"
	"github.com/lk2023060901/binser-go/pkg/config"
	"github.com/lk2023060901/binser-go/pkg/log"
	"github.com/lk2023060901/binser-go/pkg/metrics"
	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

// Codec 抽象了“从业务对象到网络帧，以及从网络帧回到业务对象”的完整编解码流程。
//
// Pipeline（写出 Encode）：
//   msg --> serializer --> [compress?] --> [encrypt?] --> Envelope{Header+Payload} --> framer.WriteFrame
//
// Pipeline（读入 Decode）：
//   framer.ReadFrame --> Envelope{Header+Payload} --> [decrypt?] --> [decompress?] --> serializer --> msg
type Codec interface {
	// Encode 将业务对象编码并写入到底层流。
	//
	//   - header：由调用方构造的报文头，Flags 中的压缩/加密位与 Size 由 Encode 填写。
	//   - msg   ：待编码的业务对象，由 serializer 负责实际序列化。
	Encode(w io.Writer, header *framer.Header, msg any) error

	// Decode 从底层流中读取一帧报文，并解码到 msg 中。
	//
	//   - msg 为接收解码结果的目标对象（通常为指针）；若为 nil，则仅解析并返回 Header。
	Decode(r io.Reader, msg any) (*framer.Header, error)

	// DecodeRaw 从底层流中读取一帧报文，并返回消息头和已完成解密/解压的业务字节。
	//
	// 说明：
	//   - 不负责反序列化为具体对象，仅返回“明文字节”供上层自行处理；
	//   - 对应 Encode 的逆过程：framer.ReadFrame -> [decrypt?] -> [decompress?]。
	DecodeRaw(r io.Reader) (*framer.Header, []byte, error)

	// Close 释放压缩器等持有的资源。
	Close()
}

// Options 用于构造 Codec 的依赖注入参数。
type Options struct {
	Framer     framer.Framer
	Serializer serializer.Serializer
	Compressor compressor.Compressor // 允许为 nil（内部会用 NopCompressor）
	Encryptor  crypto.Encryptor      // 允许为 nil（内部会用 NopEncryptor）

	EnableCompression bool // 是否启用压缩（影响压缩行为与 Header.Flags）
	EnableEncryption  bool // 是否启用加密（影响加密行为与 Header.Flags）

	// MinCompressSize 为触发压缩的最小字节数，更短的消息直接发送原文。
	MinCompressSize int

	Logger *log.MLogger // 允许为 nil（使用全局 Logger）
}

type codec struct {
	log.Binder

	framer     framer.Framer
	serializer serializer.Serializer
	compressor compressor.Compressor
	encryptor  crypto.Encryptor

	compress        bool
	encrypt         bool
	minCompressSize int
}

var _ Codec = (*codec)(nil)

// DefaultMinCompressSize 为 NewFromConfig 使用的压缩阈值。
const DefaultMinCompressSize = 256

const flagMask = framer.FlagCompressed | framer.FlagEncrypted

// New 创建一个基于给定依赖的 Codec。
func New(opts Options) (Codec, error) {
	if opts.Framer == nil {
		return nil, merr.WrapErrParameterMissing("framer", "codec.New")
	}
	if opts.Serializer == nil {
		return nil, merr.WrapErrParameterMissing("serializer", "codec.New")
	}

	c := &codec{
		framer:          opts.Framer,
		serializer:      opts.Serializer,
		compress:        opts.EnableCompression,
		encrypt:         opts.EnableEncryption,
		minCompressSize: max(opts.MinCompressSize, 0),
	}

	if opts.Compressor != nil {
		c.compressor = opts.Compressor
	} else {
		c.compressor = compressor.NopCompressor{}
	}
	if opts.Encryptor != nil {
		c.encryptor = opts.Encryptor
	} else {
		c.encryptor = crypto.NopEncryptor{}
	}
	c.SetComponent("network.codec")
	if opts.Logger != nil {
		c.SetLogger(opts.Logger)
	}

	return c, nil
}

// NewFromConfig 按配置组装管线。bc 为 binary 序列化使用的 binser.Codec，可为 nil。
func NewFromConfig(cfg config.PipelineConfig, bc *binser.Codec) (Codec, error) {
	ser, err := serializer.ByName(cfg.Serializer, bc)
	if err != nil {
		return nil, err
	}
	comp, err := compressor.ByName(cfg.Compression)
	if err != nil {
		return nil, err
	}

	opts := Options{
		Framer:            framer.NewLengthPrefixedFramer(cfg.MaxFrameSize),
		Serializer:        ser,
		Compressor:        comp,
		EnableCompression: comp.Name() != compressor.KindNone,
		EnableEncryption:  cfg.Encryption,
		MinCompressSize:   DefaultMinCompressSize,
	}
	if cfg.Encryption {
		key, err := cfg.KeyBytes()
		if err != nil {
			closeCompressor(comp)
			return nil, err
		}
		enc, err := crypto.NewXChaChaBlake3Codec(key)
		if err != nil {
			closeCompressor(comp)
			return nil, err
		}
		opts.Encryptor = enc
	}

	c, err := New(opts)
	if err != nil {
		closeCompressor(comp)
		return nil, err
	}
	c.(*codec).Logger().Info("message pipeline ready",
		zap.String("serializer", ser.Name()),
		zap.String("compression", comp.Name()),
		zap.Bool("encryption", cfg.Encryption))
	return c, nil
}

// Encode 实现 Codec.Encode。
func (c *codec) Encode(w io.Writer, header *framer.Header, msg any) (err error) {
	defer func() { c.observe(metrics.OutboundLabel, err) }()

	if w == nil {
		return merr.WrapErrParameterMissing("writer", "codec.Encode")
	}
	if msg == nil {
		return merr.WrapErrParameterMissing("msg", "codec.Encode")
	}
	if header == nil {
		return merr.WrapErrParameterMissing("header", "codec.Encode")
	}

	// 第一步：业务对象序列化。
	body, err := c.serializer.Marshal(msg)
	if err != nil {
		return network.NewStageError(network.StageSerialize, err)
	}

	// 在设置新 flags 之前，先清理压缩/加密相关位，避免复用 header 时遗留旧状态。
	header.Flags &^= flagMask

	// 第二步：可选压缩。
	if c.compress && len(body) > 0 && len(body) >= c.minCompressSize {
		compressed, err := c.compressor.Compress(nil, body)
		if err != nil {
			return network.NewStageError(network.StageCompress, err)
		}
		metrics.PipelineCompressionRatio.WithLabelValues(c.compressor.Name()).
			Observe(float64(len(compressed)) / float64(len(body)))
		body = compressed
		header.Flags |= framer.FlagCompressed
	}

	// 第三步：可选加密。
	if c.encrypt && len(body) > 0 {
		header.Flags |= framer.FlagEncrypted
		packet, err := c.encryptor.Encrypt(body, buildAAD(header))
		if err != nil {
			header.Flags &^= framer.FlagEncrypted
			return network.NewStageError(network.StageEncrypt, err)
		}
		body = packet
	}

	// 记录最终 payload 长度（与 framer 的 Header.Size 语义保持一致：等于 Envelope.Payload 的长度）。
	header.Size = uint32(len(body))

	env := &framer.Envelope{
		Header:  *header,
		Payload: body,
	}

	cw := &countingWriter{w: w}
	if err := c.framer.WriteFrame(cw, env); err != nil {
		return network.NewStageError(network.StageWriteFrame, err)
	}
	metrics.PipelineFrameBytes.WithLabelValues(metrics.OutboundLabel).Observe(float64(cw.n))
	return nil
}

// decodeFrame 完成从底层流到“消息头 + 业务明文字节”的解码流程。
//
// Pipeline：
//   framer.ReadFrame --> Envelope{Header+Payload} --> [decrypt?] --> [decompress?]
func (c *codec) decodeFrame(r io.Reader) (*framer.Header, []byte, error) {
	if r == nil {
		return nil, nil, merr.WrapErrParameterMissing("reader", "codec.Decode")
	}

	cr := &countingReader{r: r}
	env, err := c.framer.ReadFrame(cr)
	if err != nil {
		if err == io.EOF {
			return nil, nil, err
		}
		return nil, nil, network.NewStageError(network.StageReadFrame, err)
	}
	metrics.PipelineFrameBytes.WithLabelValues(metrics.InboundLabel).Observe(float64(cr.n))

	header := env.Header
	data := env.Payload

	// 第一阶段：加密 -> 解密。
	if header.Flags&framer.FlagEncrypted != 0 {
		if !c.encrypt {
			return nil, nil, network.NewStageError(network.StageDecrypt,
				merr.WrapErrPipelineMisconfig("encrypted payload but encryption disabled"))
		}
		if len(data) == 0 {
			return nil, nil, network.NewStageError(network.StageDecrypt,
				merr.WrapErrCorruptStream("encrypted payload is empty"))
		}

		plain, err := c.encryptor.Decrypt(data, buildAAD(&header))
		if err != nil {
			return nil, nil, network.NewStageError(network.StageDecrypt, err)
		}
		data = plain
	}

	// 第二阶段：压缩 -> 解压。
	if header.Flags&framer.FlagCompressed != 0 {
		if !c.compress {
			return nil, nil, network.NewStageError(network.StageDecompress,
				merr.WrapErrPipelineMisconfig("compressed payload but compression disabled"))
		}
		if len(data) == 0 {
			return nil, nil, network.NewStageError(network.StageDecompress,
				merr.WrapErrCorruptStream("compressed payload is empty"))
		}

		plain, err := c.compressor.Decompress(nil, data)
		if err != nil {
			return nil, nil, network.NewStageError(network.StageDecompress, err)
		}
		data = plain
	}

	return &header, data, nil
}

// DecodeRaw 实现 Codec.DecodeRaw。
func (c *codec) DecodeRaw(r io.Reader) (header *framer.Header, data []byte, err error) {
	defer func() { c.observe(metrics.InboundLabel, err) }()
	return c.decodeFrame(r)
}

// Decode 实现 Codec.Decode。
func (c *codec) Decode(r io.Reader, msg any) (header *framer.Header, err error) {
	defer func() { c.observe(metrics.InboundLabel, err) }()

	header, data, err := c.decodeFrame(r)
	if err != nil {
		return nil, err
	}

	// 第三阶段：反序列化到业务对象。
	if msg != nil && len(data) > 0 {
		if err := c.serializer.Unmarshal(data, msg); err != nil {
			return nil, network.NewStageError(network.StageDeserialize, err)
		}
	}

	return header, nil
}

func (c *codec) Close() {
	closeCompressor(c.compressor)
}

func (c *codec) observe(direction string, err error) {
	if err == io.EOF {
		return
	}
	status := metrics.SuccessLabel
	if err != nil {
		status = metrics.FailLabel
		c.Logger().RatedWarn(1, "message pipeline failed",
			zap.String("direction", direction),
			zap.String("stage", string(network.StageOf(err))),
			zap.Error(err))
	}
	metrics.PipelineFramesTotal.WithLabelValues(direction, c.serializer.Name(), status).Inc()
}

func closeCompressor(c compressor.Compressor) {
	if closer, ok := c.(interface{ Close() }); ok {
		closer.Close()
	}
}

// buildAAD 将 Header 中与完整性相关的字段编码为 AAD。
//
// 约定：AAD 字段顺序为：
//   op(uint32) | seq(uint64) | flags(uint64) | timestamp(int64)
//
// 注意：此处不包含 size 字段，避免与“payload 最终长度”的定义产生循环依赖。
func buildAAD(h *framer.Header) []byte {
	var buf [28]byte

	binary.BigEndian.PutUint32(buf[0:4], h.Op)
	binary.BigEndian.PutUint64(buf[4:12], h.Seq)
	binary.BigEndian.PutUint64(buf[12:20], h.Flags)
	binary.BigEndian.PutUint64(buf[20:28], uint64(h.Timestamp))

	return buf[:]
}

type countingWriter struct {
	w io.Writer
	n int
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += n
	return n, err
}

type countingReader struct {
	r io.Reader
	n int
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += n
	return n, err
}
