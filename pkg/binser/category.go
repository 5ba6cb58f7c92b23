package binser

// WireCategory 表示一个值在线格式上的类别，决定了它的字节布局。
type WireCategory uint8

const (
	Invalid WireCategory = iota
	Null
	Bool
	Integral
	Float32
	Float64
	Decimal
	Char
	String
	DateTime
	Bytes
	Enum
	KeyValuePair
	Sequence
	Mapping
	Polymorphic
	Composite
)

var categoryNames = [...]string{
	Invalid:      "invalid",
	Null:         "null",
	Bool:         "bool",
	Integral:     "integral",
	Float32:      "float32",
	Float64:      "float64",
	Decimal:      "decimal",
	Char:         "char",
	String:       "string",
	DateTime:     "datetime",
	Bytes:        "bytes",
	Enum:         "enum",
	KeyValuePair: "key_value_pair",
	Sequence:     "sequence",
	Mapping:      "mapping",
	Polymorphic:  "polymorphic",
	Composite:    "composite",
}

func (c WireCategory) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// IsScalar 判断该类别是否为定长标量布局。
func (c WireCategory) IsScalar() bool {
	switch c {
	case Bool, Integral, Float32, Float64, Decimal, Char:
		return true
	}
	return false
}
