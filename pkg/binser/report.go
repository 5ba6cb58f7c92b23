package binser

// SkippedMember 记录一个在解码时被跳过的成员：
// 目标类型上不存在该名称，或者该成员的值无法解码。
// 被跳过的成员保持零值。
type SkippedMember struct {
	Path   string
	Reason error
}

// Result 是 DecodeWithReport 的返回值。
type Result struct {
	Value   any
	Skipped []SkippedMember
	// Consumed 是本次解码从输入中读取的字节数。
	Consumed int64
}

// Complete 在没有任何成员被跳过时返回 true。
func (r Result) Complete() bool {
	return len(r.Skipped) == 0
}
