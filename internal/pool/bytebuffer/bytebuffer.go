// Copyright (c) 2019 The Gnet Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bytebuffer 是 bytebufferpool 的一层薄封装，
// 为编码器的成员帧与消息管线提供可复用的字节缓冲区。
package bytebuffer

import "github.com/valyala/bytebufferpool"

// ByteBuffer 是 bytebufferpool.ByteBuffer 的别名。
type ByteBuffer = bytebufferpool.ByteBuffer

var builtinPool bytebufferpool.Pool

// Get 从池中取出一个空的 ByteBuffer。
func Get() *ByteBuffer {
	return builtinPool.Get()
}

// Put 把 ByteBuffer 归还到池中，归还后不得再使用 b。
func Put(b *ByteBuffer) {
	if b != nil {
		builtinPool.Put(b)
	}
}
