// Package soap 实现 UPnP IGD 的 SOAP-over-HTTP 编解码和传输
//
// 请求按字节精确生成：请求行、头部顺序和大小写都是线协议的一部分，
// 有些网关只认字面量头名。
//
//	raw := soap.SerializeRequest("GetExternalIPAddress", nil,
//	    "urn:schemas-upnp-org:service:WANIPConnection:1",
//	    "10.0.0.1", "/soap.cgi?service=WANIPConn1", nil)
//
// 响应解析返回输出参数名到文本值的映射：
//
//	out, err := soap.DeserializeResponse(resp, "GetExternalIPAddress", serviceType)
//	// out["NewExternalIPAddress"] == "11.22.33.44"
package soap
