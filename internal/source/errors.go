package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// 拉取错误分类：FetchError 可回退缓存，AuthError 必须直接上抛

// FetchError 网络/限流等临时性失败
type FetchError struct {
	UserID      string
	RateLimited bool
	Err         error
}

func (e *FetchError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("拉取 %s 活动数据被限流: %v", e.UserID, e.Err)
	}
	return fmt.Sprintf("拉取 %s 活动数据失败: %v", e.UserID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AuthError 身份失效，不允许回退到缓存
type AuthError struct {
	UserID string
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s 身份校验失败: %v", e.UserID, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ValidationError 单条日历数据不合法；按非活跃日处理，只记录日志
type ValidationError struct {
	Index int
	Date  string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("日历第 %d 条(%s)无效: %s", e.Index, e.Date, FormatValidationError(e.Err))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsAuth 是否为身份错误
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsTransient 是否为临时性拉取错误
func IsTransient(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsRateLimited 是否被限流
func IsRateLimited(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.RateLimited
}

// IsFallbackEligible 只有临时性失败可以使用缓存；身份错误优先
func IsFallbackEligible(err error) bool {
	if err == nil || IsAuth(err) {
		return false
	}
	return IsTransient(err)
}

// FormatValidationError 将 validator 错误整理为一行
func FormatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s 不能为空", fe.Field()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s 不能小于 %s", fe.Field(), fe.Param()))
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s 不是合法日期(%s)", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s 不合法", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}
