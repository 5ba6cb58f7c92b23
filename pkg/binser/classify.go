package binser

import (
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

var (
	timeType     = reflect.TypeFor[time.Time]()
	decimalType  = reflect.TypeFor[decimal.Decimal]()
	runeType     = reflect.TypeFor[Rune]()
	keyValueType = reflect.TypeFor[keyValue]()
)

// Classify 使用全局 Registry 对声明类型 t 分类。
func Classify(t reflect.Type) WireCategory {
	return classify(t, defaultRegistry)
}

// classify 返回声明类型的线格式类别，第一条命中的规则生效：
// 标量（不含枚举）、字符串、时间、字节缓冲、枚举、键值对、序列/映射、接口、结构体。
// 指针按其元素类型分类。
func classify(t reflect.Type, reg *Registry) WireCategory {
	if t == nil {
		return Null
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cat, ok := scalarCategory(t, reg); ok {
		return cat
	}
	switch {
	case t.Kind() == reflect.String:
		return String
	case t == timeType:
		return DateTime
	case isByteBuffer(t, reg):
		return Bytes
	case reg.IsEnum(t):
		return Enum
	case t.Kind() == reflect.Struct && t.Implements(keyValueType):
		return KeyValuePair
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return Sequence
	case reflect.Map:
		return Mapping
	case reflect.Interface:
		return Polymorphic
	case reflect.Struct:
		return Composite
	}
	return Invalid
}

func scalarCategory(t reflect.Type, reg *Registry) (WireCategory, bool) {
	switch t {
	case decimalType:
		return Decimal, true
	case runeType:
		return Char, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return Bool, true
	case reflect.Float32:
		return Float32, true
	case reflect.Float64:
		return Float64, true
	}
	if isIntegerKind(t.Kind()) && !reg.IsEnum(t) {
		return Integral, true
	}
	return Invalid, false
}

func isByteBuffer(t reflect.Type, reg *Registry) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		elem := t.Elem()
		return elem.Kind() == reflect.Uint8 && !reg.IsEnum(elem)
	}
	return false
}

// isNullable 判断声明类型的槽位是否带有存在标记。
func isNullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	}
	return false
}
