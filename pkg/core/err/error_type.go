package errorc

import (
	"fmt"
)

type Error struct {
	*ErrorCode
	Msg      string
	Cause    error
	Stack    string `json:"-"`
	TraceID  string
	Entry    string `json:"-"`
	FileName string `json:"-"`
	Line     int    `json:"-"`
	FuncName string `json:"-"`
}

type ErrorCode struct {
	Code int
	Name string
}

func (c *ErrorCode) String() string {
	return fmt.Sprintf("%d: %s", c.Code, c.Name)
}

var (
	ErrorCodeUnknown        *ErrorCode = &ErrorCode{500, "Unknown"}
	ErrorCodeThird          *ErrorCode = &ErrorCode{502, "Third"}
	ErrorCodeValid          *ErrorCode = &ErrorCode{400, "ValidWithCtx"}
	ErrorCodeNoAuth         *ErrorCode = &ErrorCode{401, "Unauthenticated"}
	ErrorCodeForbidden      *ErrorCode = &ErrorCode{403, "Forbidden"}
	ErrorCodeNotFound       *ErrorCode = &ErrorCode{404, "NotFound"}
	ErrorCodeWrongMediaType *ErrorCode = &ErrorCode{415, "WrongMediaType"}
	ErrorCodeLimitExceeded  *ErrorCode = &ErrorCode{413, "LimitExceeded"}
	ErrorCodeUnsupportedOp  *ErrorCode = &ErrorCode{422, "UnsupportedOperation"}
	ErrorCodeUnavailable    *ErrorCode = &ErrorCode{503, "Unavailable"}
	ErrorCodeInternal       *ErrorCode = &ErrorCode{503, "InternalError"}
)
