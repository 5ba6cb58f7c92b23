package binser

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

const (
	markerNull    byte = 0x00
	markerPresent byte = 0x01

	decimalSize     = 16
	maxDecimalScale = 28
	decimalSignMask = uint32(1) << 31

	ticksPerSecond = int64(10_000_000)
	// 0001-01-01 到 1970-01-01 的秒数
	unixEpochSeconds = int64(62135596800)

	// 长度前缀超过该值时按块读取，避免被伪造的长度撑爆内存
	readChunkSize = 64 << 10
	// 预分配的元素个数上限
	maxPrealloc = 4096
)

var order = binary.LittleEndian

type writer struct {
	w       io.Writer
	n       int64
	scratch [decimalSize]byte
}

func newWriter(w io.Writer) *writer {
	return &writer{w: w}
}

func (w *writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err != nil {
		return merr.WrapErrSinkFailed(err)
	}
	if n != len(p) {
		return merr.WrapErrSinkFailed(io.ErrShortWrite)
	}
	return nil
}

func (w *writer) writeU8(v uint8) error {
	w.scratch[0] = v
	return w.write(w.scratch[:1])
}

func (w *writer) writeU16(v uint16) error {
	order.PutUint16(w.scratch[:2], v)
	return w.write(w.scratch[:2])
}

func (w *writer) writeU32(v uint32) error {
	order.PutUint32(w.scratch[:4], v)
	return w.write(w.scratch[:4])
}

func (w *writer) writeU64(v uint64) error {
	order.PutUint64(w.scratch[:8], v)
	return w.write(w.scratch[:8])
}

func (w *writer) writeLength(n int) error {
	if n > math.MaxInt32 {
		return merr.WrapErrValueOutOfRange(n, "int32 length")
	}
	return w.writeU32(uint32(n))
}

func (w *writer) writeString(s string) error {
	if err := w.writeLength(len(s)); err != nil {
		return err
	}
	n, err := io.WriteString(w.w, s)
	w.n += int64(n)
	if err != nil {
		return merr.WrapErrSinkFailed(err)
	}
	return nil
}

func (w *writer) writeBytes(b []byte) error {
	if err := w.writeLength(len(b)); err != nil {
		return err
	}
	return w.write(b)
}

func (w *writer) writeDecimal(d decimal.Decimal) error {
	if err := putDecimal(w.scratch[:decimalSize], d); err != nil {
		return err
	}
	return w.write(w.scratch[:decimalSize])
}

func (w *writer) writeTime(t time.Time) error {
	ticks, err := timeToTicks(t)
	if err != nil {
		return err
	}
	return w.writeU64(uint64(ticks))
}

// reader 统计已消费的字节数，并把源数据提前结束统一转换为 ErrTruncated。
type reader struct {
	src     io.Reader
	n       int64
	scratch [decimalSize]byte
}

func newReader(r io.Reader) *reader {
	return &reader{src: r}
}

func (r *reader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	r.n += int64(n)
	return n, err
}

func (r *reader) readFull(p []byte) error {
	n, err := io.ReadFull(r, p)
	if err != nil {
		return convertReadErr(err, len(p), n)
	}
	return nil
}

func convertReadErr(err error, need, got int) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return merr.WrapErrTruncated(need, got)
	}
	return merr.WrapErrSourceFailed(err)
}

func (r *reader) readU8() (uint8, error) {
	if err := r.readFull(r.scratch[:1]); err != nil {
		return 0, err
	}
	return r.scratch[0], nil
}

func (r *reader) readU16() (uint16, error) {
	if err := r.readFull(r.scratch[:2]); err != nil {
		return 0, err
	}
	return order.Uint16(r.scratch[:2]), nil
}

func (r *reader) readU32() (uint32, error) {
	if err := r.readFull(r.scratch[:4]); err != nil {
		return 0, err
	}
	return order.Uint32(r.scratch[:4]), nil
}

func (r *reader) readU64() (uint64, error) {
	if err := r.readFull(r.scratch[:8]); err != nil {
		return 0, err
	}
	return order.Uint64(r.scratch[:8]), nil
}

// readLength 读取 int32 长度前缀；limit 大于 0 时超过 limit 返回 ErrLimitExceeded。
func (r *reader) readLength(what string, limit int) (int, error) {
	v, err := r.readU32()
	if err != nil {
		return 0, err
	}
	n := int32(v)
	if n < 0 {
		return 0, merr.WrapErrCorruptStream("negative " + what)
	}
	if limit > 0 && int(n) > limit {
		return 0, merr.WrapErrLimitExceeded(what, limit, int(n))
	}
	return int(n), nil
}

// readBytes 读取 n 个字节。较大的长度按块增长，
// 因此声明了巨大长度的截断流不会先分配出完整的缓冲区。
func (r *reader) readBytes(n int) ([]byte, error) {
	if n <= readChunkSize {
		b := make([]byte, n)
		if err := r.readFull(b); err != nil {
			return nil, err
		}
		return b, nil
	}
	var buf bytes.Buffer
	buf.Grow(readChunkSize)
	got, err := io.CopyN(&buf, r, int64(n))
	if err != nil {
		return nil, convertReadErr(err, n, int(got))
	}
	return buf.Bytes(), nil
}

func (r *reader) readString(limit int) (string, error) {
	n, err := r.readLength("string length", limit)
	if err != nil {
		return "", err
	}
	b, err := r.readBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) readDecimal() (decimal.Decimal, error) {
	if err := r.readFull(r.scratch[:decimalSize]); err != nil {
		return decimal.Decimal{}, err
	}
	return getDecimal(r.scratch[:decimalSize])
}

func (r *reader) readTime() (time.Time, error) {
	v, err := r.readU64()
	if err != nil {
		return time.Time{}, err
	}
	return ticksToTime(int64(v)), nil
}

// putDecimal 写出 96 位系数、小数位数与符号。小数位超过 28 位时先四舍五入。
func putDecimal(buf []byte, d decimal.Decimal) error {
	if d.Exponent() < -maxDecimalScale {
		d = d.Round(maxDecimalScale)
	}
	coef := d.Coefficient()
	exp := d.Exponent()
	if exp > 0 {
		coef.Mul(coef, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
		exp = 0
	}
	neg := coef.Sign() < 0
	coef.Abs(coef)
	if coef.BitLen() > 96 {
		return merr.WrapErrValueOutOfRange(d.String(), "96-bit decimal coefficient")
	}
	var mag [12]byte
	coef.FillBytes(mag[:])
	flags := uint32(-exp) << 16
	if neg {
		flags |= decimalSignMask
	}
	order.PutUint32(buf[0:4], binary.BigEndian.Uint32(mag[8:12]))
	order.PutUint32(buf[4:8], binary.BigEndian.Uint32(mag[4:8]))
	order.PutUint32(buf[8:12], binary.BigEndian.Uint32(mag[0:4]))
	order.PutUint32(buf[12:16], flags)
	return nil
}

func getDecimal(buf []byte) (decimal.Decimal, error) {
	flags := order.Uint32(buf[12:16])
	scale := (flags >> 16) & 0xFF
	if scale > maxDecimalScale || flags&^(decimalSignMask|0x00FF0000) != 0 {
		return decimal.Decimal{}, merr.WrapErrCorruptStream("invalid decimal flags")
	}
	var mag [12]byte
	binary.BigEndian.PutUint32(mag[0:4], order.Uint32(buf[8:12]))
	binary.BigEndian.PutUint32(mag[4:8], order.Uint32(buf[4:8]))
	binary.BigEndian.PutUint32(mag[8:12], order.Uint32(buf[0:4]))
	coef := new(big.Int).SetBytes(mag[:])
	if flags&decimalSignMask != 0 {
		coef.Neg(coef)
	}
	return decimal.NewFromBigInt(coef, -int32(scale)), nil
}

// timeToTicks 把时间换算成自 0001-01-01T00:00:00Z 起的 100ns 刻度数。
// 零值 time.Time 对应 0。
func timeToTicks(t time.Time) (int64, error) {
	sec := t.Unix() + unixEpochSeconds
	if sec > math.MaxInt64/ticksPerSecond-1 || sec < math.MinInt64/ticksPerSecond+1 {
		return 0, merr.WrapErrValueOutOfRange(t.String(), "int64 ticks")
	}
	return sec*ticksPerSecond + int64(t.Nanosecond()/100), nil
}

func ticksToTime(ticks int64) time.Time {
	sec, rem := ticks/ticksPerSecond, ticks%ticksPerSecond
	if rem < 0 {
		rem += ticksPerSecond
		sec--
	}
	return time.Unix(sec-unixEpochSeconds, rem*100).UTC()
}
