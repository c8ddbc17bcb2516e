package version

import (
	"errors"
	"fmt"
)

// ErrVersionMatch 版本解析或比较失败的总类错误
// 自动关闭只捕获这一类错误并放弃本次判断，其他错误照常返回
var ErrVersionMatch = errors.New("version match failed")

var (
	// ErrAmbiguousRange 范围表达式存在歧义(空范围、= 与其他比较符混用、重复边界)
	ErrAmbiguousRange = fmt.Errorf("%w: ambiguous range", ErrVersionMatch)
	// ErrUncomparable 两个版本之间无法建立顺序(不同版本族、不同 epoch)
	ErrUncomparable = fmt.Errorf("%w: uncomparable versions", ErrVersionMatch)
)

// InvalidVersionError 版本串或范围表达式不合法
type InvalidVersionError struct {
	Family string
	Input  string
	Reason string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid %s version string %q: %s", e.Family, e.Input, e.Reason)
}

func (e *InvalidVersionError) Unwrap() error {
	return ErrVersionMatch
}

func invalid(family, input, reason string) error {
	return &InvalidVersionError{Family: family, Input: input, Reason: reason}
}

func uncomparable(left, right Version, reason string) error {
	return fmt.Errorf("%w: %s %q vs %s %q: %s", ErrUncomparable,
		left.Family(), left.String(), right.Family(), right.String(), reason)
}
