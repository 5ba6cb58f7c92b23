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
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	var cerr codecError
	if errors.As(err, &cerr) {
		return cerr.code()
	}
	if errors.Is(err, context.Canceled) {
		return CanceledCode
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutCode
	}
	return errUnexpected.code()
}

// CodeName 返回错误码对应的稳定字符串，主要用于指标标签。
func CodeName(err error) string {
	if err == nil {
		return "ok"
	}
	var cerr codecError
	if errors.As(err, &cerr) {
		return strings.ReplaceAll(baseMessage(cerr), " ", "_")
	}
	return "unexpected"
}

// GetErrorType 返回错误的类型（输入错误或系统错误）。
func GetErrorType(err error) ErrorType {
	var cerr codecError
	if errors.As(err, &cerr) {
		return cerr.errType
	}
	return SystemError
}

func IsInputError(err error) bool {
	return GetErrorType(err) == InputError
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

// Encode related

func WrapErrEncodeMember(path string, cause any, msg ...string) error {
	err := wrapFields(ErrEncodeMember, value("member", path), value("cause", cause))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrUnsupportedType(t reflect.Type, msg ...string) error {
	err := wrapFields(ErrUnsupportedType, value("type", t))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrUnregisteredType(t reflect.Type, msg ...string) error {
	err := wrapFields(ErrUnregisteredType, value("type", t))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrValueOutOfRange[T any](v T, bound string, msg ...string) error {
	err := wrapFields(ErrValueOutOfRange, value("value", v), value("bound", bound))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrSinkFailed(err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrSinkFailed, err.Error())
}

func WrapErrDuplicateTypeName(name string, existing, incoming reflect.Type) error {
	return wrapFields(ErrDuplicateTypeName,
		value("name", name),
		value("existing", existing),
		value("incoming", incoming),
	)
}

// Decode related

func WrapErrTruncated(need, got int, msg ...string) error {
	err := wrapFields(ErrTruncated, value("need", need), value("got", got))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrUnresolvedType(name string, msg ...string) error {
	err := wrapFields(ErrUnresolvedType, value("name", name))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrTypeMismatch(expected, actual any, msg ...string) error {
	err := wrapFields(ErrTypeMismatch,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrCorruptStream(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrCorruptStream, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrInvalidTarget(t reflect.Type, msg ...string) error {
	err := wrapFields(ErrInvalidTarget, value("type", t))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrSourceFailed(err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrSourceFailed, err.Error())
}

func WrapErrMemberSkipped(member string, reason string) error {
	return wrapFieldsWithDesc(ErrMemberSkipped, reason, value("member", member))
}

// Limit related

func WrapErrLimitExceeded[T any](name string, limit, actual T, msg ...string) error {
	err := wrapFields(ErrLimitExceeded,
		value("limit_name", name),
		value("limit", limit),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Pipeline related

func WrapErrFrameTooLarge(size, limit uint32) error {
	return wrapFields(ErrFrameTooLarge, value("size", size), value("limit", limit))
}

func WrapErrCompressFailed(kind string, err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrCompressFailed, err.Error(), value("kind", kind))
}

func WrapErrEncryptFailed(err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrEncryptFailed, err.Error())
}

func WrapErrPipelineMisconfig(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrPipelineMisconfig, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrSerializerMismatch(name string, v any) error {
	return wrapFields(ErrSerializerMismatch, value("serializer", name), value("type", fmt.Sprintf("%T", v)))
}

// Parameter related

func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(format string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, format, args...)
}

func WrapErrParameterMissing[T any](param T, msg ...string) error {
	err := wrapFields(ErrParameterMissing,
		value("missing_param", param),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func wrapFields(err codecError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err codecError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

// baseMessage 返回叶子错误的原始描述（不含附加字段）。
func baseMessage(err codecError) string {
	for _, leaf := range leafErrors {
		if leaf.errCode == err.errCode {
			return leaf.msg
		}
	}
	return err.msg
}

var leafErrors = []codecError{
	ErrEncodeMember, ErrUnsupportedType, ErrUnregisteredType, ErrValueOutOfRange,
	ErrSinkFailed, ErrDuplicateTypeName,
	ErrTruncated, ErrUnresolvedType, ErrTypeMismatch, ErrCorruptStream,
	ErrInvalidTarget, ErrSourceFailed, ErrMemberSkipped,
	ErrLimitExceeded,
	ErrFrameTooLarge, ErrCompressFailed, ErrEncryptFailed, ErrPipelineMisconfig, ErrSerializerMismatch,
	ErrParameterInvalid, ErrParameterMissing,
	ErrOperationNotSupported,
	errUnexpected,
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}
