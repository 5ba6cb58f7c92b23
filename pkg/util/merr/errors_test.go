// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"context"
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrTruncated(4, 2)
	err = errors.Wrap(err, "failed to read length prefix")
	s.ErrorIs(err, ErrTruncated)
	s.Equal(Code(ErrTruncated), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(errUnexpected.errCode, Code(errors.New("plain")))
	s.Equal(int32(0), Code(nil))

	sameCodeErr := newCodecError("new error", ErrTruncated.errCode, InputError)
	s.True(sameCodeErr.Is(ErrTruncated))
}

func (s *ErrSuite) TestCodeName() {
	s.Equal("ok", CodeName(nil))
	s.Equal("stream_truncated", CodeName(WrapErrTruncated(8, 1)))
	s.Equal("type_mismatch", CodeName(errors.Wrap(WrapErrTypeMismatch("Shape", "Square"), "outer")))
	s.Equal("unexpected", CodeName(errors.New("boom")))
}

func (s *ErrSuite) TestErrorType() {
	s.True(IsInputError(WrapErrCorruptStream("bad marker")))
	s.False(IsInputError(WrapErrSinkFailed(errors.New("disk full"))))
	s.Equal(SystemError, GetErrorType(errors.New("unknown")))
	s.Equal("input_error", InputError.String())
}

func (s *ErrSuite) TestWrap() {
	intType := reflect.TypeOf(0)

	// Encode 相关错误。
	s.ErrorIs(WrapErrEncodeMember("Order.Total", "panic"), ErrEncodeMember)
	s.ErrorIs(WrapErrUnsupportedType(reflect.TypeOf(make(chan int))), ErrUnsupportedType)
	s.ErrorIs(WrapErrUnregisteredType(intType, "dynamic type"), ErrUnregisteredType)
	s.ErrorIs(WrapErrValueOutOfRange(int64(1)<<40, "int32"), ErrValueOutOfRange)
	s.ErrorIs(WrapErrSinkFailed(errors.New("closed")), ErrSinkFailed)
	s.NoError(WrapErrSinkFailed(nil))
	s.ErrorIs(WrapErrDuplicateTypeName("x", intType, intType), ErrDuplicateTypeName)

	// Decode 相关错误。
	s.ErrorIs(WrapErrTruncated(4, 0, "reading count"), ErrTruncated)
	s.ErrorIs(WrapErrUnresolvedType("shapes.Hexagon"), ErrUnresolvedType)
	s.ErrorIs(WrapErrTypeMismatch("Shape", "Animal"), ErrTypeMismatch)
	s.ErrorIs(WrapErrCorruptStream("negative length", "string"), ErrCorruptStream)
	s.ErrorIs(WrapErrInvalidTarget(nil), ErrInvalidTarget)
	s.ErrorIs(WrapErrSourceFailed(errors.New("reset")), ErrSourceFailed)
	s.ErrorIs(WrapErrMemberSkipped("Order.Lines", "unknown member"), ErrMemberSkipped)

	// Limit / pipeline 相关错误。
	s.ErrorIs(WrapErrLimitExceeded("max_depth", 8, 9), ErrLimitExceeded)
	s.ErrorIs(WrapErrFrameTooLarge(10, 5), ErrFrameTooLarge)
	s.ErrorIs(WrapErrCompressFailed("zstd", errors.New("bad")), ErrCompressFailed)
	s.ErrorIs(WrapErrEncryptFailed(errors.New("bad mac")), ErrEncryptFailed)
	s.ErrorIs(WrapErrPipelineMisconfig("framer is nil"), ErrPipelineMisconfig)
	s.ErrorIs(WrapErrSerializerMismatch("proto", 1), ErrSerializerMismatch)

	// Parameter 相关错误。
	s.ErrorIs(WrapErrParameterInvalid(8, 1, "wrong length"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("key size %d", 3), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("registry"), ErrParameterMissing)
}

func (s *ErrSuite) TestWrapFieldsMessage() {
	err := WrapErrTruncated(4, 1)
	s.Equal("stream truncated[need=4][got=1]", err.Error())

	err = WrapErrCorruptStream("bad presence marker 0x07")
	s.Equal("corrupt stream: bad presence marker 0x07", err.Error())
}

func (s *ErrSuite) TestCombineErrors() {
	errFirst := errors.New("first")
	errSecond := errors.New("second")
	errThird := errors.New("third")

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	err = Combine(errFirst, nil, WrapErrTruncated(1, 0))
	s.True(errors.Is(err, ErrTruncated))

	s.NoError(Combine(nil, nil))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
