package binser

import (
	"cmp"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/lk2023060901/binser-go/internal/pool/bytebuffer"
	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

// Encoder 把值按声明类型写入一个 io.Writer。
// Encoder 不是并发安全的，每次顶层编码都应使用新的 Encoder。
type Encoder struct {
	w     *writer
	reg   *Registry
	cfg   Config
	path  pathStack
	depth int
}

// Written 返回已写入底层 Writer 的字节数。
func (e *Encoder) Written() int64 {
	return e.w.n
}

// Encode 按声明类型 declared 编码 v。declared 为 nil 时取 v 的动态类型；
// 二者都为空时写出单字节的空标记。declared 为接口类型时，v 的动态类型名会写入流中。
func (e *Encoder) Encode(v reflect.Value, declared reflect.Type) error {
	if declared == nil {
		if !v.IsValid() {
			return e.put(e.w.writeU8(markerNull))
		}
		declared = v.Type()
	}
	e.path.root = rootName(declared)
	switch {
	case !v.IsValid():
		if !isNullable(declared) {
			return e.fail(merr.WrapErrParameterInvalidMsg("nil value for non-nullable type %s", declared))
		}
		return e.put(e.w.writeU8(markerNull))
	case v.Type() != declared:
		if !v.Type().AssignableTo(declared) {
			return e.fail(merr.WrapErrTypeMismatch(declared.String(), v.Type().String()))
		}
		slot := reflect.New(declared).Elem()
		slot.Set(v)
		v = slot
	}
	return e.encode(v, declared)
}

func (e *Encoder) encode(v reflect.Value, t reflect.Type) error {
	if e.cfg.MaxDepth > 0 && e.depth >= e.cfg.MaxDepth {
		return e.fail(merr.WrapErrLimitExceeded("depth", e.cfg.MaxDepth, e.depth+1))
	}
	e.depth++
	defer func() { e.depth-- }()

	if isNullable(t) {
		if v.IsNil() {
			return e.put(e.w.writeU8(markerNull))
		}
		if err := e.put(e.w.writeU8(markerPresent)); err != nil {
			return err
		}
		switch t.Kind() {
		case reflect.Pointer:
			return e.encode(v.Elem(), t.Elem())
		case reflect.Interface:
			return e.encodeDynamic(v.Elem())
		}
	}

	switch classify(t, e.reg) {
	case Bool:
		var b uint8
		if v.Bool() {
			b = 1
		}
		return e.put(e.w.writeU8(b))
	case Integral:
		return e.put(e.writeIntegral(v))
	case Float32:
		return e.put(e.w.writeU32(math.Float32bits(float32(v.Float()))))
	case Float64:
		return e.put(e.w.writeU64(math.Float64bits(v.Float())))
	case Decimal:
		return e.put(e.w.writeDecimal(v.Interface().(decimal.Decimal)))
	case Char:
		return e.put(e.w.writeU32(uint32(int32(v.Int()))))
	case String:
		return e.put(e.w.writeString(v.String()))
	case DateTime:
		return e.put(e.w.writeTime(v.Interface().(time.Time)))
	case Bytes:
		return e.put(e.writeByteBuffer(v))
	case Enum:
		n, err := enumOrdinal(v)
		if err != nil {
			return e.fail(err)
		}
		return e.put(e.w.writeU32(uint32(n)))
	case KeyValuePair:
		return e.encodePair(v, t)
	case Sequence:
		return e.encodeSequence(v, t)
	case Mapping:
		return e.encodeMapping(v, t)
	case Composite:
		return e.encodeComposite(v, t)
	}
	return e.fail(merr.WrapErrUnsupportedType(t))
}

// encodeDynamic 写出动态类型的注册名，再按该类型编码。
func (e *Encoder) encodeDynamic(v reflect.Value) error {
	dyn := v.Type()
	name, err := e.reg.NameOf(dyn)
	if err != nil {
		return e.fail(err)
	}
	if err := e.put(e.w.writeString(name)); err != nil {
		return err
	}
	return e.encode(v, dyn)
}

func (e *Encoder) writeIntegral(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Int8:
		return e.w.writeU8(uint8(v.Int()))
	case reflect.Int16:
		return e.w.writeU16(uint16(v.Int()))
	case reflect.Int32:
		return e.w.writeU32(uint32(v.Int()))
	case reflect.Int, reflect.Int64:
		return e.w.writeU64(uint64(v.Int()))
	case reflect.Uint8:
		return e.w.writeU8(uint8(v.Uint()))
	case reflect.Uint16:
		return e.w.writeU16(uint16(v.Uint()))
	case reflect.Uint32:
		return e.w.writeU32(uint32(v.Uint()))
	default:
		return e.w.writeU64(v.Uint())
	}
}

func (e *Encoder) writeByteBuffer(v reflect.Value) error {
	if v.Kind() == reflect.Slice {
		return e.w.writeBytes(v.Bytes())
	}
	if v.CanAddr() {
		return e.w.writeBytes(v.Slice(0, v.Len()).Bytes())
	}
	buf := make([]byte, v.Len())
	for i := range buf {
		buf[i] = byte(v.Index(i).Uint())
	}
	return e.w.writeBytes(buf)
}

func enumOrdinal(v reflect.Value) (int32, error) {
	if v.Type().Implements(protoEnumType) && v.CanInterface() {
		return int32(v.Interface().(protoreflect.Enum).Number()), nil
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, merr.WrapErrValueOutOfRange(n, "int32 enum ordinal")
		}
		return int32(n), nil
	default:
		n := v.Uint()
		if n > math.MaxInt32 {
			return 0, merr.WrapErrValueOutOfRange(n, "int32 enum ordinal")
		}
		return int32(n), nil
	}
}

func (e *Encoder) encodePair(v reflect.Value, t reflect.Type) error {
	e.path.pushField("Key")
	err := e.encode(v.Field(pairKeyIndex), t.Field(pairKeyIndex).Type)
	e.path.pop()
	if err != nil {
		return err
	}
	e.path.pushField("Value")
	err = e.encode(v.Field(pairValueIndex), t.Field(pairValueIndex).Type)
	e.path.pop()
	return err
}

func (e *Encoder) encodeSequence(v reflect.Value, t reflect.Type) error {
	n := v.Len()
	if err := e.put(e.w.writeLength(n)); err != nil {
		return err
	}
	et := t.Elem()
	for i := 0; i < n; i++ {
		e.path.pushIndex(i)
		err := e.encode(v.Index(i), et)
		e.path.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeMapping(v reflect.Value, t reflect.Type) error {
	keys := v.MapKeys()
	if e.cfg.SortMapKeys {
		slices.SortFunc(keys, compareKeys)
	}
	if err := e.put(e.w.writeLength(len(keys))); err != nil {
		return err
	}
	kt, vt := t.Key(), t.Elem()
	for _, k := range keys {
		e.path.pushKey(keyLabel(k))
		err := e.encode(k, kt)
		if err == nil {
			err = e.encode(v.MapIndex(k), vt)
		}
		e.path.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

// encodeComposite 先写字段再写属性，每个成员的值都带 int32 帧长前缀。
func (e *Encoder) encodeComposite(v reflect.Value, t reflect.Type) error {
	desc := descriptorOf(t)
	if err := e.put(e.w.writeLength(len(desc.fields))); err != nil {
		return err
	}
	for i := range desc.fields {
		f := &desc.fields[i]
		e.path.pushField(f.name)
		err := e.encodeMember(f.name, func() error {
			return e.encode(v.FieldByIndex(f.index), f.typ)
		})
		e.path.pop()
		if err != nil {
			return err
		}
	}

	if err := e.put(e.w.writeLength(len(desc.props))); err != nil {
		return err
	}
	if len(desc.props) == 0 {
		return nil
	}
	if !v.CanAddr() {
		tmp := reflect.New(t).Elem()
		tmp.Set(v)
		v = tmp
	}
	recv := v.Addr()
	for i := range desc.props {
		p := &desc.props[i]
		e.path.pushField(p.name)
		err := e.encodeMember(p.name, func() error {
			pv, err := e.callGetter(recv, p)
			if err != nil {
				return err
			}
			return e.encode(pv, p.typ)
		})
		e.path.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

// encodeMember 写出成员名，然后把 fn 产生的字节作为一个帧写出。
func (e *Encoder) encodeMember(name string, fn func() error) error {
	if err := e.put(e.w.writeString(name)); err != nil {
		return err
	}
	buf := bytebuffer.Get()
	defer bytebuffer.Put(buf)

	outer := e.w
	e.w = newWriter(buf)
	err := fn()
	e.w = outer
	if err != nil {
		return err
	}
	return e.put(e.w.writeBytes(buf.B))
}

func (e *Encoder) callGetter(recv reflect.Value, p *property) (out reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = e.fail(merr.WrapErrEncodeMember(e.path.String(), r))
		}
	}()
	return recv.Method(p.getter).Call(nil)[0], nil
}

func (e *Encoder) put(err error) error {
	if err == nil {
		return nil
	}
	return e.fail(err)
}

func (e *Encoder) fail(err error) error {
	var encErr *EncodeError
	if errors.As(err, &encErr) {
		return err
	}
	return &EncodeError{Path: e.path.String(), Err: err}
}

func rootName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t.Name() != "":
		return t.Name()
	case t.Kind() == reflect.Interface && t.NumMethod() == 0:
		return "any"
	}
	return t.String()
}

func keyLabel(k reflect.Value) any {
	if k.CanInterface() {
		return k.Interface()
	}
	return k.String()
}

// compareKeys 为映射的键给出确定的顺序，规则与 fmt 打印 map 时相同。
func compareKeys(a, b reflect.Value) int {
	if a.Kind() != b.Kind() {
		return cmp.Compare(a.Kind(), b.Kind())
	}
	switch a.Kind() {
	case reflect.String:
		return strings.Compare(a.String(), b.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	case reflect.Bool:
		switch {
		case a.Bool() == b.Bool():
			return 0
		case a.Bool():
			return 1
		default:
			return -1
		}
	case reflect.Pointer, reflect.Chan:
		return cmp.Compare(a.Pointer(), b.Pointer())
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if c := compareKeys(a.Field(i), b.Field(i)); c != 0 {
				return c
			}
		}
		return 0
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if c := compareKeys(a.Index(i), b.Index(i)); c != 0 {
				return c
			}
		}
		return 0
	case reflect.Interface:
		switch {
		case a.IsNil() && b.IsNil():
			return 0
		case a.IsNil():
			return -1
		case b.IsNil():
			return 1
		}
		ae, be := a.Elem(), b.Elem()
		if ae.Type() != be.Type() {
			return strings.Compare(ae.Type().String(), be.Type().String())
		}
		return compareKeys(ae, be)
	}
	return 0
}
