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
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Encode related
	ErrEncodeMember      = newCodecError("member access failed", 100, SystemError)
	ErrUnsupportedType   = newCodecError("unsupported type", 101, InputError)
	ErrUnregisteredType  = newCodecError("type not registered", 102, InputError)
	ErrValueOutOfRange   = newCodecError("value out of range", 103, InputError)
	ErrSinkFailed        = newCodecError("write to sink failed", 104, SystemError)
	ErrDuplicateTypeName = newCodecError("duplicate type name", 105, InputError)

	// Decode related
	ErrTruncated      = newCodecError("stream truncated", 200, InputError)
	ErrUnresolvedType = newCodecError("unresolved type", 201, InputError)
	ErrTypeMismatch   = newCodecError("type mismatch", 202, InputError)
	ErrCorruptStream  = newCodecError("corrupt stream", 203, InputError)
	ErrInvalidTarget  = newCodecError("invalid decode target", 204, InputError)
	ErrSourceFailed   = newCodecError("read from source failed", 205, SystemError)
	ErrMemberSkipped  = newCodecError("member skipped", 206, InputError)

	// Limit related
	ErrLimitExceeded = newCodecError("limit exceeded", 300, InputError)

	// Pipeline related
	ErrFrameTooLarge      = newCodecError("frame too large", 400, InputError)
	ErrCompressFailed     = newCodecError("compress failed", 401, SystemError)
	ErrEncryptFailed      = newCodecError("encrypt failed", 402, SystemError)
	ErrPipelineMisconfig  = newCodecError("pipeline misconfigured", 403, InputError)
	ErrSerializerMismatch = newCodecError("serializer mismatch", 404, InputError)

	// Parameter related
	ErrParameterInvalid = newCodecError("invalid parameter", 1100, InputError)
	ErrParameterMissing = newCodecError("missing parameter", 1101, InputError)

	// General
	ErrOperationNotSupported = newCodecError("unsupported operation", 3000, SystemError)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to codecError
	errUnexpected = newCodecError("unexpected error", (1<<16)-1, SystemError)
)

type errorOption func(*codecError)

func WithDetail(detail string) errorOption {
	return func(err *codecError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *codecError) {
		err.errType = etype
	}
}

type codecError struct {
	msg     string
	detail  string
	errCode int32
	errType ErrorType
}

func newCodecError(msg string, code int32, etype ErrorType, options ...errorOption) codecError {
	err := codecError{
		msg:     msg,
		detail:  msg,
		errCode: code,
		errType: etype,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e codecError) code() int32 {
	return e.errCode
}

func (e codecError) Error() string {
	return e.msg
}

func (e codecError) Detail() string {
	return e.detail
}

func (e codecError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(codecError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make merr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
