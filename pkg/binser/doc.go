// Package binser 实现了一个基于反射的通用二进制对象编解码器。
//
// 编码端根据值的声明类型把它归入一个线格式类别（WireCategory），
// 再按类别写出对应的字节布局；解码端需要调用方给出期望的目标类型，
// 按同样的分类规则读回数据并重建出等价的值。
//
// 线格式（小端序）：
//
//	Null         可空槽位（指针、接口、切片、map）前置 1 字节存在标记：0x00 为空，0x01 为非空
//	Bool         1 字节
//	Integral     1/2/4/8 字节，int/uint/uintptr 固定 8 字节
//	Float32/64   IEEE-754 4/8 字节
//	Decimal      16 字节：lo、mid、hi（96 位系数）+ flags（scale<<16，bit31 为符号）
//	Char         int32 码点
//	String       int32 字节长度 + UTF-8 字节
//	DateTime     int64，自 0001-01-01T00:00:00Z 起的 100ns 刻度；不携带时区，解码结果总是 UTC
//	Bytes        int32 长度 + 原始字节
//	Enum         int32 序号
//	KeyValuePair Key + Value，无前缀
//	Sequence     int32 元素个数 + 元素
//	Mapping      int32 键值对个数 + (Key, Value)*
//	Composite    int32 字段数 + (名称, int32 帧长, 值)* + int32 属性数 + (名称, int32 帧长, 值)*
//	Polymorphic  String 类型名 + 具体类型的布局
//
// 结构体成员的值都带有帧长前缀，因此解码端可以跳过目标类型上不存在的成员，
// 或者在单个成员损坏时丢弃该成员而继续解码其余部分。被跳过的成员通过
// Result.Skipped 返回给调用方。
//
// 时间只保留时刻：非 UTC 的 time.Time 解码后与原值 Equal，但 Location 变为 UTC，
// 因此不能用 reflect.DeepEqual 比较。
//
// 对象标识与循环引用不会被保留：所有引用都按值递归编码。
// 循环对象图会导致无限递归，除非通过 Config.MaxDepth 设置了深度上限。
package binser
