// Package json 对 bytedance/sonic 做一层薄封装，统一仓库内的 JSON 编解码入口。
package json

import (
	"github.com/bytedance/sonic"
)

// api 与标准库 encoding/json 行为保持一致（排序 map 键、转义 HTML 等）。
var api = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Valid 判断 data 是否为合法 JSON。
func Valid(data []byte) bool {
	return api.Valid(data)
}
