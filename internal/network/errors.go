package network

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Stage 表示消息管线中的处理阶段。
//
// 主要用于在错误中标记失败发生的位置，便于监控与排查。
type Stage string

const (
	StageSerialize   Stage = "serialize"   // 业务对象 -> 字节
	StageCompress    Stage = "compress"    // 字节 -> 压缩字节
	StageEncrypt     Stage = "encrypt"     // 明文 -> 密文
	StageWriteFrame  Stage = "write_frame" // Envelope -> 线路
	StageReadFrame   Stage = "read_frame"  // 线路 -> Envelope
	StageDecrypt     Stage = "decrypt"     // 密文 -> 明文
	StageDecompress  Stage = "decompress"  // 压缩字节 -> 字节
	StageDeserialize Stage = "deserialize" // 字节 -> 业务对象
)

// 统一的错误码常量。
//
// 注意：这些是用于日志/监控的稳定字符串，真正的 error 对象在下面通过 errors.New 构造。
const (
	ErrCodeEncodeFailed = "network:encode_failed"
	ErrCodeDecodeFailed = "network:decode_failed"
)

var (
	// ErrEncodeFailed 表示在把业务对象写成一帧的过程中发生错误。
	ErrEncodeFailed = errors.New(ErrCodeEncodeFailed)

	// ErrDecodeFailed 表示在把一帧还原为业务对象的过程中发生错误。
	ErrDecodeFailed = errors.New(ErrCodeDecodeFailed)
)

// StageError 记录失败的阶段与原因。
//
// errors.Is 同时匹配方向错误（ErrEncodeFailed / ErrDecodeFailed）与底层原因。
type StageError struct {
	Stage Stage
	Err   error
}

// NewStageError 创建 StageError，err 为 nil 时返回 nil。
func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.direction(), e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	return target == e.direction()
}

func (e *StageError) direction() error {
	switch e.Stage {
	case StageSerialize, StageCompress, StageEncrypt, StageWriteFrame:
		return ErrEncodeFailed
	default:
		return ErrDecodeFailed
	}
}

// StageOf 返回 err 链上第一个 StageError 的阶段，不存在时返回空串。
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
