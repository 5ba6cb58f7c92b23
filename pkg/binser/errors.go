package binser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/binser-go/pkg/util/merr"
)

// EncodeError 表示编码失败，Path 指出出错的成员，例如 "Order.Lines[2].Sku"。
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return "binser: encode " + e.Path + ": " + e.Err.Error()
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError 表示解码失败，Path 指出出错的成员。
type DecodeError struct {
	Path string
	// Offset 是出错时已从输入中消费的字节数。
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return "binser: decode " + e.Path + " at offset " + strconv.FormatInt(e.Offset, 10) + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// isFatal 判断成员级别的错误是否必须终止整个解码，而不是跳过该成员。
func isFatal(err error) bool {
	return errors.IsAny(err, merr.ErrLimitExceeded, merr.ErrSourceFailed)
}

type segmentKind uint8

const (
	segField segmentKind = iota
	segIndex
	segKey
)

type segment struct {
	kind  segmentKind
	name  string
	index int
	key   any
}

// pathStack 记录当前所处的成员路径，只在出错时才格式化成字符串。
type pathStack struct {
	root string
	segs []segment
}

func (p *pathStack) pushField(name string) { p.segs = append(p.segs, segment{kind: segField, name: name}) }

func (p *pathStack) pushIndex(i int) { p.segs = append(p.segs, segment{kind: segIndex, index: i}) }

func (p *pathStack) pushKey(k any) { p.segs = append(p.segs, segment{kind: segKey, key: k}) }

func (p *pathStack) pop() { p.segs = p.segs[:len(p.segs)-1] }

func (p *pathStack) String() string {
	var sb strings.Builder
	sb.WriteString(p.root)
	for _, s := range p.segs {
		switch s.kind {
		case segField:
			if sb.Len() > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(s.name)
		case segIndex:
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(s.index))
			sb.WriteByte(']')
		case segKey:
			sb.WriteByte('[')
			sb.WriteString(formatKey(s.key))
			sb.WriteByte(']')
		}
	}
	if sb.Len() == 0 {
		return "<root>"
	}
	return sb.String()
}

func formatKey(k any) string {
	switch v := k.(type) {
	case string:
		return strconv.Quote(v)
	case nil:
		return "nil"
	default:
		return fmt.Sprint(v)
	}
}
