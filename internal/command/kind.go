package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrBadValue 值无法转换为声明的类型
var ErrBadValue = errors.New("command: bad value")

// Kind 参数或返回值的语义类型
type Kind int

const (
	// String 原样字符串
	String Kind = iota
	// NullableString 字符串，"none"/"nil" 视为缺失
	NullableString
	// Int 有符号整数
	Int
	// Uint16 端口等 ui2 值
	Uint16
	// Uint32 租期、计数等 ui4 值
	Uint32
	// Bool UPnP boolean（0/1）
	Bool
)

// String 返回类型名
func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case NullableString:
		return "string?"
	case Int:
		return "int"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Coerce 把网关返回的文本转换为 kind 对应的 Go 值
//
// String → string，NullableString → string 或 nil，Int → int，
// Uint16 → uint16，Uint32 → uint32，Bool → bool。
func Coerce(kind Kind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case NullableString:
		switch strings.ToLower(raw) {
		case "none", "nil":
			return nil, nil
		}
		return raw, nil
	case Int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not %s", ErrBadValue, raw, kind)
		}
		return v, nil
	case Uint16:
		v, err := strconv.ParseUint(raw, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not %s", ErrBadValue, raw, kind)
		}
		return uint16(v), nil
	case Uint32:
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not %s", ErrBadValue, raw, kind)
		}
		return uint32(v), nil
	case Bool:
		switch strings.ToLower(raw) {
		case "1", "true", "yes":
			return true, nil
		case "0", "false", "no", "":
			return false, nil
		}
		return nil, fmt.Errorf("%w: %q is not %s", ErrBadValue, raw, kind)
	default:
		return raw, nil
	}
}

// Format 把调用参数格式化为请求文本
//
// Bool 写为 "1"/"0"；数值类型检查取值范围；nil 写为空串。
func Format(kind Kind, v any) (string, error) {
	if v == nil {
		return "", nil
	}

	switch kind {
	case Bool:
		switch b := v.(type) {
		case bool:
			if b {
				return "1", nil
			}
			return "0", nil
		case string:
			parsed, err := Coerce(Bool, b)
			if err != nil {
				return "", err
			}
			return Format(Bool, parsed)
		}
		n, err := toInt64(v)
		if err != nil || (n != 0 && n != 1) {
			return "", fmt.Errorf("%w: %v is not %s", ErrBadValue, v, kind)
		}
		return strconv.FormatInt(n, 10), nil

	case Int, Uint16, Uint32:
		n, err := toInt64(v)
		if err != nil {
			return "", fmt.Errorf("%w: %v is not %s", ErrBadValue, v, kind)
		}
		if (kind == Uint16 && (n < 0 || n > 0xffff)) || (kind == Uint32 && (n < 0 || n > 0xffffffff)) {
			return "", fmt.Errorf("%w: %d out of range for %s", ErrBadValue, n, kind)
		}
		return strconv.FormatInt(n, 10), nil

	default:
		return fmt.Sprint(v), nil
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return toInt64(uint64(n))
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, ErrBadValue
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, ErrBadValue
	}
}
