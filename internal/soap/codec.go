package soap

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dep2p/go-igd/internal/xmltree"
)

// UserAgent 默认 User-Agent
const UserAgent = "Go/igd, UPnP/1.0, MiniUPnPc/1.9"

const (
	envelopeNS    = "http://schemas.xmlsoap.org/soap/envelope/"
	encodingStyle = "http://schemas.xmlsoap.org/soap/encoding/"
)

// SerializeRequest 生成一次动作调用的完整 HTTP POST 请求
//
// paramNames 决定参数元素的顺序；values 中缺少的参数写为空元素。
// 头部顺序固定为 Host、User-Agent、Content-Length、Content-Type、SOAPAction、
// Connection、Cache-Control、Pragma。
func SerializeRequest(method string, paramNames []string, serviceType, host, controlPath string, values map[string]string) []byte {
	return serialize(method, paramNames, serviceType, host, controlPath, values, UserAgent)
}

func serialize(method string, paramNames []string, serviceType, host, controlPath string, values map[string]string, userAgent string) []byte {
	body := envelope(method, paramNames, serviceType, values)

	var b bytes.Buffer
	b.Grow(len(body) + 256)
	fmt.Fprintf(&b, "POST %s HTTP/1.1\r\n", controlPath)
	fmt.Fprintf(&b, "Host: %s\r\n", host)
	fmt.Fprintf(&b, "User-Agent: %s\r\n", userAgent)
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(body))
	b.WriteString("Content-Type: text/xml\r\n")
	fmt.Fprintf(&b, "SOAPAction: \"%s#%s\"\r\n", serviceType, method)
	b.WriteString("Connection: Close\r\n")
	b.WriteString("Cache-Control: no-cache\r\n")
	b.WriteString("Pragma: no-cache\r\n")
	b.WriteString("\r\n")
	b.Write(body)
	return b.Bytes()
}

func envelope(method string, paramNames []string, serviceType string, values map[string]string) []byte {
	var b bytes.Buffer
	b.WriteString("<?xml version=\"1.0\"?>\r\n")
	fmt.Fprintf(&b, "<s:Envelope xmlns:s=\"%s\" s:encodingStyle=\"%s\">", envelopeNS, encodingStyle)
	b.WriteString("<s:Body>")
	fmt.Fprintf(&b, "<u:%s xmlns:u=\"%s\">", method, serviceType)
	for _, name := range paramNames {
		fmt.Fprintf(&b, "<%s>", name)
		_ = xml.EscapeText(&b, []byte(values[name]))
		fmt.Fprintf(&b, "</%s>", name)
	}
	fmt.Fprintf(&b, "</u:%s>", method)
	b.WriteString("</s:Body></s:Envelope>\r\n")
	return b.Bytes()
}

// DeserializeResponse 解析网关对 method 调用的 HTTP 响应
//
// 返回 <method>Response 元素下每个子元素本地名到去空白文本的映射。
// serviceID 只用于错误信息。
func DeserializeResponse(raw []byte, method, serviceID string) (map[string]string, error) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStatusLine, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil && len(body) == 0 {
		// Content-Length 大于实际长度时保留已读到的部分
		return nil, fmt.Errorf("%w: %v", ErrMissingBody, err)
	}

	if resp.StatusCode != http.StatusOK {
		fault := &Fault{Method: method, Status: statusText(resp), Body: string(body)}
		if doc, perr := xmltree.ParseBytes(body); perr == nil {
			if el := findFault(doc); el != nil {
				fillFault(fault, el)
			}
		}
		return nil, fault
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrMissingBody
	}

	doc, err := xmltree.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingResponseElement, err)
	}

	if el := findFault(doc); el != nil {
		fault := &Fault{Method: method, Status: statusText(resp), Body: string(body)}
		fillFault(fault, el)
		return nil, fault
	}

	respEl := soapBody(doc).Child(method + "Response")
	if respEl == nil {
		return nil, fmt.Errorf("%w: %s (service %s)", ErrMissingResponseElement, method+"Response", serviceID)
	}

	out := make(map[string]string, len(respEl.Children))
	for _, c := range respEl.Children {
		out[c.Name] = c.TrimmedText()
	}
	return out, nil
}

// soapBody 返回 Envelope/Body；非标准文档直接在根下查找
func soapBody(doc *xmltree.Element) *xmltree.Element {
	if doc.Is("Envelope") {
		if body := doc.Child("Body"); body != nil {
			return body
		}
	}
	if doc.Is("Body") {
		return doc
	}
	if body := doc.Descendant("Body"); body != nil {
		return body
	}
	return doc
}

func findFault(doc *xmltree.Element) *xmltree.Element {
	return soapBody(doc).Child("Fault")
}

func fillFault(f *Fault, el *xmltree.Element) {
	f.Code = el.ChildText("faultcode")
	f.String = el.ChildText("faultstring")
	upnpErr := el.Child("detail").Child("UPnPError")
	if upnpErr == nil {
		return
	}
	if code, err := strconv.Atoi(upnpErr.ChildText("errorCode")); err == nil {
		f.UPnPCode = code
	}
	f.UPnPDescription = upnpErr.ChildText("errorDescription")
}

func statusText(resp *http.Response) string {
	return strings.TrimSpace(resp.Status)
}
