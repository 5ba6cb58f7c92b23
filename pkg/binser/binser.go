package binser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"
	"runtime"

	"github.com/samber/lo"

	"github.com/lk2023060901/binser-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/binser-go/pkg/log"
	"github.com/lk2023060901/binser-go/pkg/metrics"
	"github.com/lk2023060901/binser-go/pkg/util/conc"
	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

// Codec 组合了类型注册表、配置与 Logger，是编解码的入口。
// Codec 本身无状态，可以被多个 goroutine 并发使用。
type Codec struct {
	log.Binder

	registry *Registry
	cfg      Config
}

// NewCodec 创建一个 Codec。
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		registry: defaultRegistry,
		cfg:      DefaultConfig(),
	}
	c.SetComponent("binser")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = NewCodec()

// Default 返回包级函数使用的 Codec。
func Default() *Codec {
	return defaultCodec
}

// Registry 返回 Codec 使用的类型注册表。
func (c *Codec) Registry() *Registry {
	return c.registry
}

// Config 返回 Codec 的配置副本。
func (c *Codec) Config() Config {
	return c.cfg
}

// Classify 返回声明类型 t 在该 Codec 下的线格式类别。
func (c *Codec) Classify(t reflect.Type) WireCategory {
	return classify(t, c.registry)
}

// NewEncoder 创建一个写入 w 的 Encoder。
func (c *Codec) NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: newWriter(w), reg: c.registry, cfg: c.cfg}
}

// NewDecoder 创建一个从 r 读取的 Decoder。
func (c *Codec) NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:      newReader(r),
		reg:    c.registry,
		cfg:    c.cfg,
		logger: c.Logger(),
	}
}

// Encode 按 v 的动态类型编码并返回字节。
func (c *Codec) Encode(v any) ([]byte, error) {
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)
	if err := c.EncodeInto(buf, v); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.B), nil
}

// EncodeInto 按 v 的动态类型把 v 编码到 w。
func (c *Codec) EncodeInto(w io.Writer, v any) error {
	if v == nil {
		return c.EncodeValue(w, reflect.Value{}, nil)
	}
	rv := reflect.ValueOf(v)
	return c.EncodeValue(w, rv, rv.Type())
}

// EncodeValue 按声明类型 declared 编码 v。
func (c *Codec) EncodeValue(w io.Writer, v reflect.Value, declared reflect.Type) error {
	enc := c.NewEncoder(w)
	err := enc.Encode(v, declared)
	if err != nil {
		metrics.CodecEncodeTotal.WithLabelValues(metrics.FailLabel).Inc()
		metrics.CodecErrors.WithLabelValues(merr.CodeName(err)).Inc()
		return err
	}
	metrics.CodecEncodeTotal.WithLabelValues(metrics.SuccessLabel).Inc()
	metrics.CodecEncodedBytes.Observe(float64(enc.Written()))
	return nil
}

// EncodeAll 并发编码多个相互独立的值，结果与输入一一对应。
func (c *Codec) EncodeAll(ctx context.Context, values []any) ([][]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}
	pool, err := conc.NewPool[[]byte](min(len(values), runtime.GOMAXPROCS(0)), conc.WithConcealPanic(true))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	futures := make([]*conc.Future[[]byte], 0, len(values))
	for _, v := range values {
		if err := ctx.Err(); err != nil {
			_ = conc.AwaitAll(futures...)
			return nil, err
		}
		futures = append(futures, pool.Submit(func() ([]byte, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return c.Encode(v)
		}))
	}
	if err := conc.AwaitAll(futures...); err != nil {
		return nil, err
	}
	return lo.Map(futures, func(f *conc.Future[[]byte], _ int) []byte {
		return f.Value()
	}), nil
}

// Decode 按目标类型 t 解码 data。
func (c *Codec) Decode(data []byte, t reflect.Type) (any, error) {
	res, err := c.DecodeWithReport(data, t)
	return res.Value, err
}

// DecodeFrom 从 r 中按目标类型 t 解码一个值，只消费该值占用的字节。
func (c *Codec) DecodeFrom(r io.Reader, t reflect.Type) (any, error) {
	res, err := c.DecodeFromWithReport(r, t)
	return res.Value, err
}

// DecodeWithReport 与 Decode 相同，但同时返回被跳过的成员。
// Strict 模式下 data 末尾存在未消费的字节也视为错误。
func (c *Codec) DecodeWithReport(data []byte, t reflect.Type) (Result, error) {
	br := bytes.NewReader(data)
	res, err := c.DecodeFromWithReport(br, t)
	if err == nil && c.cfg.Strict && br.Len() > 0 {
		err = &DecodeError{
			Path:   "<root>",
			Offset: res.Consumed,
			Err:    merr.WrapErrCorruptStream(fmt.Sprintf("%d trailing bytes", br.Len())),
		}
		c.observeDecode(nil, err)
		return Result{}, err
	}
	return res, err
}

// DecodeFromWithReport 与 DecodeFrom 相同，但同时返回被跳过的成员。
func (c *Codec) DecodeFromWithReport(r io.Reader, t reflect.Type) (Result, error) {
	dec := c.NewDecoder(r)
	v, err := dec.Decode(t)
	c.observeDecode(dec.Skipped(), err)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v.Interface(), Skipped: dec.Skipped(), Consumed: dec.Consumed()}, nil
}

// Unmarshal 把 data 解码到 out 指向的值上，out 必须是非 nil 指针。
func (c *Codec) Unmarshal(data []byte, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		err := &DecodeError{Path: "<root>", Err: merr.WrapErrInvalidTarget(reflect.TypeOf(out), "expect a non-nil pointer")}
		c.observeDecode(nil, err)
		return err
	}
	dec := c.NewDecoder(bytes.NewReader(data))
	err := dec.DecodeInto(rv.Elem())
	c.observeDecode(dec.Skipped(), err)
	return err
}

func (c *Codec) observeDecode(skipped []SkippedMember, err error) {
	if len(skipped) > 0 {
		metrics.CodecSkippedMembers.Add(float64(len(skipped)))
	}
	if err != nil {
		metrics.CodecDecodeTotal.WithLabelValues(metrics.FailLabel).Inc()
		metrics.CodecErrors.WithLabelValues(merr.CodeName(err)).Inc()
		return
	}
	metrics.CodecDecodeTotal.WithLabelValues(metrics.SuccessLabel).Inc()
}

// EncodeTyped 按声明类型 T 编码 v。T 为接口类型时，v 的动态类型名会写入流中。
func EncodeTyped[T any](c *Codec, v T) ([]byte, error) {
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)
	if err := c.EncodeValue(buf, reflect.ValueOf(&v).Elem(), reflect.TypeFor[T]()); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.B), nil
}

// DecodeTyped 按目标类型 T 解码 data。
func DecodeTyped[T any](c *Codec, data []byte) (T, error) {
	var out T
	err := c.Unmarshal(data, &out)
	return out, err
}

// 以下包级函数使用 Default() 返回的 Codec。

func Encode(v any) ([]byte, error) {
	return defaultCodec.Encode(v)
}

func EncodeInto(w io.Writer, v any) error {
	return defaultCodec.EncodeInto(w, v)
}

// EncodeAs 按声明类型 T 编码 v，例如 EncodeAs[Shape](Circle{Radius: 5})。
func EncodeAs[T any](v T) ([]byte, error) {
	return EncodeTyped(defaultCodec, v)
}

func Decode(data []byte, t reflect.Type) (any, error) {
	return defaultCodec.Decode(data, t)
}

func DecodeFrom(r io.Reader, t reflect.Type) (any, error) {
	return defaultCodec.DecodeFrom(r, t)
}

func DecodeWithReport(data []byte, t reflect.Type) (Result, error) {
	return defaultCodec.DecodeWithReport(data, t)
}

// DecodeAs 按目标类型 T 解码 data。
func DecodeAs[T any](data []byte) (T, error) {
	return DecodeTyped[T](defaultCodec, data)
}

func Unmarshal(data []byte, out any) error {
	return defaultCodec.Unmarshal(data, out)
}

// RegisterType 在全局注册表中以 name 注册 T。
func RegisterType[T any](name string) error {
	return Register[T](defaultRegistry, name)
}
