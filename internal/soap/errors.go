package soap

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedResponse 响应无法按 SOAP 响应解析
	ErrMalformedResponse = errors.New("soap: malformed response")

	// ErrMalformedStatusLine 状态行无法解析
	ErrMalformedStatusLine = fmt.Errorf("%w: malformed status line", ErrMalformedResponse)

	// ErrMissingBody 响应没有消息体
	ErrMissingBody = fmt.Errorf("%w: missing body", ErrMalformedResponse)

	// ErrMissingResponseElement SOAP Body 中没有 <方法名>Response 元素
	ErrMissingResponseElement = fmt.Errorf("%w: missing response element", ErrMalformedResponse)

	// ErrSOAPFault 网关返回 SOAP Fault 或非 200 状态
	ErrSOAPFault = errors.New("soap: fault")
)

// Fault 网关返回的错误
//
// 非 200 状态和 200 状态下的 <Fault> 元素都报告为 Fault。
type Fault struct {
	// Method 调用的方法名
	Method string

	// Status HTTP 状态行，例如 "500 Internal Server Error"
	Status string

	// Code faultcode，例如 "s:Client"
	Code string

	// String faultstring，通常为 "UPnPError"
	String string

	// UPnPCode detail/UPnPError/errorCode，没有时为 0
	UPnPCode int

	// UPnPDescription detail/UPnPError/errorDescription
	UPnPDescription string

	// Body 原始消息体
	Body string
}

func (f *Fault) Error() string {
	var b strings.Builder
	b.WriteString("soap: fault")
	if f.Method != "" {
		b.WriteString(" calling ")
		b.WriteString(f.Method)
	}
	if f.Status != "" {
		b.WriteString(": status ")
		b.WriteString(f.Status)
	}
	if f.Code != "" || f.String != "" {
		fmt.Fprintf(&b, ": %s %s", f.Code, f.String)
	}
	if f.UPnPCode != 0 || f.UPnPDescription != "" {
		fmt.Fprintf(&b, " (UPnP error %d: %s)", f.UPnPCode, f.UPnPDescription)
	}
	return b.String()
}

// Is 使 errors.Is(err, ErrSOAPFault) 成立
func (f *Fault) Is(target error) bool {
	return target == ErrSOAPFault
}

// UPnP 常见错误码
const (
	CodeInvalidAction              = 401
	CodeInvalidArgs                = 402
	CodeActionFailed               = 501
	CodeSpecifiedArrayIndexInvalid = 713
	CodeNoSuchEntryInArray         = 714
	CodeConflictInMappingEntry     = 718
)

// ErrTransport 连接、发送或接收失败
var ErrTransport = errors.New("soap: transport failure")
