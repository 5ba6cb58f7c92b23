package binser

// Rune 表示单个字符，按 Char 类别编码。普通的 rune 与 int32 无法区分，需要按字符编码时使用该类型。
type Rune rune

// Pair 是一个键值对，编码时依次写出 Key 与 Value，不带数量前缀。
type Pair[K, V any] struct {
	Key   K
	Value V
}

// NewPair 构造一个 Pair。
func NewPair[K, V any](key K, value V) Pair[K, V] {
	return Pair[K, V]{Key: key, Value: value}
}

func (Pair[K, V]) keyValuePair() {}

// keyValue 只能由本包内的 Pair 实现，用于识别 KeyValuePair 类别。
type keyValue interface {
	keyValuePair()
}

const (
	pairKeyIndex   = 0
	pairValueIndex = 1
)
