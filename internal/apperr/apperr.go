package apperr

import "fmt"

// Error 携带HTTP状态码和错误代码的业务错误
// 所有会返回给调用方的错误都用这个类型包装
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建业务错误
func New(status int, code string, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Wrap 创建携带底层错误的业务错误
func Wrap(status int, code string, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}
