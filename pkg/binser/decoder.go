package binser

import (
	"fmt"
	"io"
	"math"
	"reflect"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/binser-go/pkg/log"
	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

// Decoder 从 io.Reader 中按期望的目标类型读回值。
// Decoder 不是并发安全的，每次顶层解码都应使用新的 Decoder。
type Decoder struct {
	r       *reader
	base    int64
	reg     *Registry
	cfg     Config
	logger  *log.MLogger
	path    pathStack
	depth   int
	skipped []SkippedMember
}

// Consumed 返回已从输入中读取的字节数。
func (d *Decoder) Consumed() int64 {
	return d.base + d.r.n
}

// Skipped 返回解码过程中被跳过的成员。
func (d *Decoder) Skipped() []SkippedMember {
	return d.skipped
}

// Decode 分配一个 t 类型的零值并从流中填充它。
func (d *Decoder) Decode(t reflect.Type) (reflect.Value, error) {
	if t == nil || classify(t, d.reg) == Invalid {
		return reflect.Value{}, &DecodeError{Path: "<root>", Err: merr.WrapErrInvalidTarget(t)}
	}
	dst := reflect.New(t).Elem()
	if err := d.DecodeInto(dst); err != nil {
		return reflect.Value{}, err
	}
	return dst, nil
}

// DecodeInto 解码到一个可设置的值上，原有内容会被完全覆盖。
func (d *Decoder) DecodeInto(dst reflect.Value) error {
	if !dst.IsValid() || !dst.CanSet() {
		return &DecodeError{Path: "<root>", Err: merr.WrapErrInvalidTarget(nil, "target is not settable")}
	}
	d.path.root = rootName(dst.Type())
	return d.decode(dst)
}

func (d *Decoder) decode(dst reflect.Value) error {
	if d.cfg.MaxDepth > 0 && d.depth >= d.cfg.MaxDepth {
		return d.fail(merr.WrapErrLimitExceeded("depth", d.cfg.MaxDepth, d.depth+1))
	}
	d.depth++
	defer func() { d.depth-- }()

	t := dst.Type()
	if isNullable(t) {
		marker, err := d.r.readU8()
		if err != nil {
			return d.fail(err)
		}
		switch marker {
		case markerNull:
			dst.SetZero()
			return nil
		case markerPresent:
		default:
			return d.fail(merr.WrapErrCorruptStream(fmt.Sprintf("invalid presence marker 0x%02x", marker)))
		}
		switch t.Kind() {
		case reflect.Pointer:
			elem := reflect.New(t.Elem())
			if err := d.decode(elem.Elem()); err != nil {
				return err
			}
			dst.Set(elem)
			return nil
		case reflect.Interface:
			return d.decodeDynamic(dst)
		}
	}

	switch classify(t, d.reg) {
	case Bool:
		b, err := d.r.readU8()
		if err != nil {
			return d.fail(err)
		}
		dst.SetBool(b != 0)
		return nil
	case Integral:
		return d.put(d.readIntegral(dst))
	case Float32:
		u, err := d.r.readU32()
		if err != nil {
			return d.fail(err)
		}
		dst.SetFloat(float64(math.Float32frombits(u)))
		return nil
	case Float64:
		u, err := d.r.readU64()
		if err != nil {
			return d.fail(err)
		}
		dst.SetFloat(math.Float64frombits(u))
		return nil
	case Decimal:
		v, err := d.r.readDecimal()
		if err != nil {
			return d.fail(err)
		}
		dst.Set(reflect.ValueOf(v))
		return nil
	case Char:
		u, err := d.r.readU32()
		if err != nil {
			return d.fail(err)
		}
		dst.SetInt(int64(int32(u)))
		return nil
	case String:
		s, err := d.r.readString(d.cfg.MaxStringLen)
		if err != nil {
			return d.fail(err)
		}
		dst.SetString(s)
		return nil
	case DateTime:
		v, err := d.r.readTime()
		if err != nil {
			return d.fail(err)
		}
		dst.Set(reflect.ValueOf(v))
		return nil
	case Bytes:
		return d.put(d.readByteBuffer(dst))
	case Enum:
		return d.put(d.readEnum(dst))
	case KeyValuePair:
		return d.decodePair(dst)
	case Sequence:
		if t.Kind() == reflect.Array {
			return d.decodeArray(dst)
		}
		return d.decodeSlice(dst)
	case Mapping:
		return d.decodeMapping(dst)
	case Composite:
		return d.decodeComposite(dst)
	}
	return d.fail(merr.WrapErrInvalidTarget(t))
}

// decodeDynamic 读取类型名并在注册表中解析，解析出的类型必须实现目标接口。
func (d *Decoder) decodeDynamic(dst reflect.Value) error {
	target := dst.Type()
	name, err := d.r.readString(d.cfg.MaxStringLen)
	if err != nil {
		return d.fail(err)
	}
	rt, err := d.reg.Resolve(name)
	if err != nil {
		return d.fail(err)
	}
	if !rt.Implements(target) {
		return d.fail(merr.WrapErrTypeMismatch(target.String(), name))
	}
	val := reflect.New(rt).Elem()
	if err := d.decode(val); err != nil {
		return err
	}
	dst.Set(val)
	return nil
}

func (d *Decoder) readIntegral(dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Int8:
		v, err := d.r.readU8()
		dst.SetInt(int64(int8(v)))
		return err
	case reflect.Int16:
		v, err := d.r.readU16()
		dst.SetInt(int64(int16(v)))
		return err
	case reflect.Int32:
		v, err := d.r.readU32()
		dst.SetInt(int64(int32(v)))
		return err
	case reflect.Int, reflect.Int64:
		v, err := d.r.readU64()
		if err != nil {
			return err
		}
		if dst.OverflowInt(int64(v)) {
			return merr.WrapErrValueOutOfRange(int64(v), dst.Type().String())
		}
		dst.SetInt(int64(v))
		return nil
	case reflect.Uint8:
		v, err := d.r.readU8()
		dst.SetUint(uint64(v))
		return err
	case reflect.Uint16:
		v, err := d.r.readU16()
		dst.SetUint(uint64(v))
		return err
	case reflect.Uint32:
		v, err := d.r.readU32()
		dst.SetUint(uint64(v))
		return err
	default:
		v, err := d.r.readU64()
		if err != nil {
			return err
		}
		if dst.OverflowUint(v) {
			return merr.WrapErrValueOutOfRange(v, dst.Type().String())
		}
		dst.SetUint(v)
		return nil
	}
}

func (d *Decoder) readByteBuffer(dst reflect.Value) error {
	n, err := d.r.readLength("byte buffer length", d.cfg.MaxCollectionLen)
	if err != nil {
		return err
	}
	b, err := d.r.readBytes(n)
	if err != nil {
		return err
	}
	if dst.Kind() == reflect.Slice {
		dst.SetBytes(b)
		return nil
	}
	for i := 0; i < dst.Len(); i++ {
		var c byte
		if i < len(b) {
			c = b[i]
		}
		dst.Index(i).SetUint(uint64(c))
	}
	return d.checkArrayLen(n, dst.Len())
}

func (d *Decoder) readEnum(dst reflect.Value) error {
	u, err := d.r.readU32()
	if err != nil {
		return err
	}
	n := int64(int32(u))
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if dst.OverflowInt(n) {
			return merr.WrapErrValueOutOfRange(n, dst.Type().String())
		}
		dst.SetInt(n)
	default:
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return merr.WrapErrValueOutOfRange(n, dst.Type().String())
		}
		dst.SetUint(uint64(n))
	}
	return nil
}

func (d *Decoder) decodePair(dst reflect.Value) error {
	d.path.pushField("Key")
	err := d.decode(dst.Field(pairKeyIndex))
	d.path.pop()
	if err != nil {
		return err
	}
	d.path.pushField("Value")
	err = d.decode(dst.Field(pairValueIndex))
	d.path.pop()
	return err
}

func (d *Decoder) decodeSlice(dst reflect.Value) error {
	n, err := d.r.readLength("sequence length", d.cfg.MaxCollectionLen)
	if err != nil {
		return d.fail(err)
	}
	t := dst.Type()
	s := reflect.MakeSlice(t, 0, min(n, maxPrealloc))
	zero := reflect.Zero(t.Elem())
	for i := 0; i < n; i++ {
		s = reflect.Append(s, zero)
		d.path.pushIndex(i)
		err := d.decode(s.Index(i))
		d.path.pop()
		if err != nil {
			return err
		}
	}
	dst.Set(s)
	return nil
}

// decodeArray 读取 count 个元素；超出数组长度的元素被读取后丢弃，不足的部分保持零值。
// 长度不一致时记为跳过，Strict 模式下返回错误。
func (d *Decoder) decodeArray(dst reflect.Value) error {
	n, err := d.r.readLength("sequence length", d.cfg.MaxCollectionLen)
	if err != nil {
		return d.fail(err)
	}
	et := dst.Type().Elem()
	for i := 0; i < n; i++ {
		slot := reflect.New(et).Elem()
		if i < dst.Len() {
			slot = dst.Index(i)
		}
		d.path.pushIndex(i)
		err := d.decode(slot)
		d.path.pop()
		if err != nil {
			return err
		}
	}
	for i := n; i < dst.Len(); i++ {
		dst.Index(i).SetZero()
	}
	return d.checkArrayLen(n, dst.Len())
}

func (d *Decoder) checkArrayLen(count, length int) error {
	if count == length {
		return nil
	}
	return d.skip(merr.WrapErrCorruptStream(
		fmt.Sprintf("sequence length %d does not match array length %d", count, length)), false)
}

func (d *Decoder) decodeMapping(dst reflect.Value) error {
	n, err := d.r.readLength("mapping length", d.cfg.MaxCollectionLen)
	if err != nil {
		return d.fail(err)
	}
	t := dst.Type()
	m := reflect.MakeMapWithSize(t, min(n, maxPrealloc))
	kt, vt := t.Key(), t.Elem()
	for i := 0; i < n; i++ {
		k := reflect.New(kt).Elem()
		v := reflect.New(vt).Elem()
		d.path.pushIndex(i)
		err := d.decode(k)
		if err == nil && !k.Comparable() {
			err = d.fail(merr.WrapErrCorruptStream("map key of type " + k.Type().String() + " is not comparable"))
		}
		if err == nil {
			err = d.decode(v)
		}
		d.path.pop()
		if err != nil {
			return err
		}
		m.SetMapIndex(k, v)
	}
	dst.Set(m)
	return nil
}

// decodeComposite 以零值为起点，按名称依次应用字段和属性。
func (d *Decoder) decodeComposite(dst reflect.Value) error {
	desc := descriptorOf(dst.Type())
	dst.SetZero()

	nf, err := d.r.readLength("field count", 0)
	if err != nil {
		return d.fail(err)
	}
	for i := 0; i < nf; i++ {
		name, err := d.r.readString(d.cfg.MaxStringLen)
		if err != nil {
			return d.fail(err)
		}
		d.path.pushField(name)
		err = d.decodeField(dst, desc, name)
		d.path.pop()
		if err != nil {
			return err
		}
	}

	np, err := d.r.readLength("property count", 0)
	if err != nil {
		return d.fail(err)
	}
	for i := 0; i < np; i++ {
		name, err := d.r.readString(d.cfg.MaxStringLen)
		if err != nil {
			return d.fail(err)
		}
		d.path.pushField(name)
		err = d.decodeProperty(dst, desc, name)
		d.path.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decodeField(dst reflect.Value, desc *descriptor, name string) error {
	idx, ok := desc.fieldByName[name]
	if !ok {
		if _, err := d.decodeFramed(nil); err != nil {
			return err
		}
		return d.skip(merr.WrapErrMemberSkipped(d.path.String(), "unknown field"), true)
	}
	f := &desc.fields[idx]
	v, err := d.decodeFramed(f.typ)
	if err != nil {
		return d.onMemberError(err)
	}
	dst.FieldByIndex(f.index).Set(v)
	return nil
}

func (d *Decoder) decodeProperty(dst reflect.Value, desc *descriptor, name string) error {
	idx, ok := desc.propByName[name]
	if !ok {
		if _, err := d.decodeFramed(nil); err != nil {
			return err
		}
		return d.skip(merr.WrapErrMemberSkipped(d.path.String(), "unknown property"), true)
	}
	p := &desc.props[idx]
	v, err := d.decodeFramed(p.typ)
	if err == nil {
		err = d.callSetter(dst.Addr(), p, v)
	}
	if err != nil {
		return d.onMemberError(err)
	}
	return nil
}

// decodeFramed 读取一个成员帧并在帧内按 t 解码；t 为 nil 时整帧丢弃。
// 无论成员本身是否解码成功，读取位置总会停在帧尾。
// 成员自身的错误以 *frameError 返回，其余错误都是致命的。
func (d *Decoder) decodeFramed(t reflect.Type) (reflect.Value, error) {
	n, err := d.r.readLength("member frame length", 0)
	if err != nil {
		return reflect.Value{}, d.fail(err)
	}
	outer, base := d.r, d.base
	frame := &io.LimitedReader{R: outer, N: int64(n)}
	d.base, d.r = d.Consumed(), newReader(frame)

	var (
		v         reflect.Value
		memberErr error
	)
	if t != nil {
		v = reflect.New(t).Elem()
		memberErr = d.decode(v)
	}
	d.r, d.base = outer, base

	if memberErr != nil && isFatal(memberErr) {
		return reflect.Value{}, memberErr
	}
	if rest := frame.N; rest > 0 {
		got, err := io.CopyN(io.Discard, frame, rest)
		if err != nil {
			return reflect.Value{}, d.fail(convertReadErr(err, int(rest), int(got)))
		}
		if memberErr == nil && t != nil {
			memberErr = d.fail(merr.WrapErrCorruptStream(fmt.Sprintf("%d unread bytes in member frame", rest)))
		}
	}
	if memberErr != nil {
		return reflect.Value{}, &frameError{err: memberErr}
	}
	return v, nil
}

// frameError 表示成员帧内部的错误，外层流仍然保持同步。
type frameError struct {
	err error
}

func (e *frameError) Error() string { return e.err.Error() }

func (e *frameError) Unwrap() error { return e.err }

func (d *Decoder) onMemberError(err error) error {
	var fe *frameError
	if errors.As(err, &fe) {
		return d.skip(fe.err, false)
	}
	if isFatal(err) || errors.HasType(err, (*DecodeError)(nil)) {
		return err
	}
	// setter 失败
	return d.skip(err, false)
}

// skip 记录一个被跳过的成员；Strict 模式下改为返回错误。
func (d *Decoder) skip(reason error, unknown bool) error {
	path := d.path.String()
	if d.cfg.Strict {
		return d.fail(reason)
	}
	d.skipped = append(d.skipped, SkippedMember{Path: path, Reason: reason})
	if unknown {
		d.logger.RatedDebug(1, "binser skipped unknown member", log.FieldMember(path))
	} else {
		d.logger.RatedWarn(1, "binser skipped undecodable member", log.FieldMember(path), zap.Error(reason))
	}
	return nil
}

func (d *Decoder) callSetter(recv reflect.Value, p *property, v reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = merr.WrapErrMemberSkipped(d.path.String(), fmt.Sprint("setter panicked: ", r))
		}
	}()
	recv.Method(p.setter).Call([]reflect.Value{v})
	return nil
}

func (d *Decoder) put(err error) error {
	if err == nil {
		return nil
	}
	return d.fail(err)
}

func (d *Decoder) fail(err error) error {
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return err
	}
	return &DecodeError{Path: d.path.String(), Offset: d.Consumed(), Err: err}
}
