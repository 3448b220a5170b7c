package domain

import "errors"

// 定价领域错误
// 所有校验失败都返回以下哨兵错误（可能带上下文包装），调用方通过 errors.Is 判断类型。
var (
	// ErrInvalidOptionKind 期权类型不是 CALL / PUT
	ErrInvalidOptionKind = errors.New("pricing: invalid option kind")
	// ErrInvalidParameter 市场参数、合约参数或障碍参数非法（非正数、NaN、Inf、超出范围）
	ErrInvalidParameter = errors.New("pricing: invalid parameter")
	// ErrInvalidStyle 行权方式不是 EUROPEAN / AMERICAN
	ErrInvalidStyle = errors.New("pricing: invalid exercise style")
	// ErrIndexOutOfRange 网格坐标越界（col > row 或 row 超出深度）
	ErrIndexOutOfRange = errors.New("pricing: lattice index out of range")
)

// IsValidationError 判断错误是否属于输入校验类错误
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidOptionKind) ||
		errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrInvalidStyle)
}
