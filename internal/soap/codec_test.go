package soap

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	wanIPConn = "urn:schemas-upnp-org:service:WANIPConnection:1"
	soapPath  = "/soap.cgi?service=WANIPConn1"
)

// ============================================================================
//                              序列化测试
// ============================================================================

func TestSerializeRequest_Exact(t *testing.T) {
	want := "POST /soap.cgi?service=WANIPConn1 HTTP/1.1\r\n" +
		"Host: 10.0.0.1\r\n" +
		"User-Agent: " + UserAgent + "\r\n" +
		"Content-Length: 285\r\n" +
		"Content-Type: text/xml\r\n" +
		"SOAPAction: \"urn:schemas-upnp-org:service:WANIPConnection:1#GetExternalIPAddress\"\r\n" +
		"Connection: Close\r\n" +
		"Cache-Control: no-cache\r\n" +
		"Pragma: no-cache\r\n" +
		"\r\n" +
		"<?xml version=\"1.0\"?>\r\n" +
		"<s:Envelope xmlns:s=\"http://schemas.xmlsoap.org/soap/envelope/\"" +
		" s:encodingStyle=\"http://schemas.xmlsoap.org/soap/encoding/\">" +
		"<s:Body><u:GetExternalIPAddress xmlns:u=\"urn:schemas-upnp-org:service:WANIPConnection:1\">" +
		"</u:GetExternalIPAddress></s:Body></s:Envelope>\r\n"

	got := SerializeRequest("GetExternalIPAddress", nil, wanIPConn, "10.0.0.1", soapPath, nil)
	assert.Equal(t, want, string(got))
}

func TestSerializeRequest_Params(t *testing.T) {
	names := []string{"NewRemoteHost", "NewExternalPort", "NewProtocol", "NewPortMappingDescription"}
	values := map[string]string{
		"NewExternalPort":           "4567",
		"NewProtocol":               "UDP",
		"NewPortMappingDescription": "a<b & c>",
	}

	raw := SerializeRequest("DeletePortMapping", names, wanIPConn, "10.0.0.1", "/ctl/IPConn", values)

	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)

	t.Run("Content-Length 等于消息体长度", func(t *testing.T) {
		assert.Equal(t, strconv.Itoa(len(body)), req.Header.Get("Content-Length"))
		assert.Equal(t, int64(len(body)), req.ContentLength)
	})

	t.Run("参数按给定顺序", func(t *testing.T) {
		s := string(body)
		assert.Contains(t, s, "<NewRemoteHost></NewRemoteHost><NewExternalPort>4567</NewExternalPort>"+
			"<NewProtocol>UDP</NewProtocol>")
		assert.Less(t, strings.Index(s, "NewRemoteHost"), strings.Index(s, "NewPortMappingDescription"))
	})

	t.Run("文本转义", func(t *testing.T) {
		assert.Contains(t, string(body), "<NewPortMappingDescription>a&lt;b &amp; c&gt;</NewPortMappingDescription>")
	})

	t.Run("头部", func(t *testing.T) {
		assert.Equal(t, "/ctl/IPConn", req.URL.String())
		assert.Equal(t, `"`+wanIPConn+`#DeletePortMapping"`, req.Header.Get("SOAPAction"))
		assert.Equal(t, "10.0.0.1", req.Host)
	})
}

// ============================================================================
//                              反序列化测试
// ============================================================================

const externalIPResponse = "HTTP/1.1 200 OK\r\n" +
	"CONTENT-LENGTH: 340\r\n" +
	"CONTENT-TYPE: text/xml; charset=\"utf-8\"\r\n" +
	"DATE: Thu, 18 Oct 2018 01:20:23 GMT\r\n" +
	"EXT:\r\n" +
	"SERVER: Linux/3.14.28-Prod_17.2, UPnP/1.0, Portable SDK for UPnP devices/1.6.22\r\n" +
	"X-User-Agent: redsonic\r\n" +
	"\r\n" +
	"<s:Envelope xmlns:s=\"http://schemas.xmlsoap.org/soap/envelope/\" s:encodingStyle=\"http://schemas.xmlsoap.org/soap/encoding/\"><s:Body>\n" +
	"<u:GetExternalIPAddressResponse xmlns:u=\"urn:schemas-upnp-org:service:WANIPConnection:1\">\r\n" +
	"<NewExternalIPAddress>11.22.33.44</NewExternalIPAddress>\r\n" +
	"</u:GetExternalIPAddressResponse>\r\n" +
	"</s:Body> </s:Envelope>"

func TestDeserializeResponse(t *testing.T) {
	out, err := DeserializeResponse([]byte(externalIPResponse), "GetExternalIPAddress", wanIPConn)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"NewExternalIPAddress": "11.22.33.44"}, out)
}

func TestDeserializeResponse_Variants(t *testing.T) {
	wrap := func(body string) []byte {
		return []byte("HTTP/1.1 200 OK\r\nContent-Type: text/xml\r\nContent-Length: " +
			strconv.Itoa(len(body)) + "\r\n\r\n" + body)
	}

	t.Run("多个输出并去空白", func(t *testing.T) {
		raw := wrap(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>` +
			`<m:GetStatusInfoResponse xmlns:m="urn:x">` +
			`<NewConnectionStatus> Connected </NewConnectionStatus>` +
			`<NewLastConnectionError>ERROR_NONE</NewLastConnectionError>` +
			`<NewUptime>42</NewUptime>` +
			`</m:GetStatusInfoResponse></s:Body></s:Envelope>`)
		out, err := DeserializeResponse(raw, "GetStatusInfo", wanIPConn)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"NewConnectionStatus":    "Connected",
			"NewLastConnectionError": "ERROR_NONE",
			"NewUptime":              "42",
		}, out)
	})

	t.Run("空响应元素", func(t *testing.T) {
		raw := wrap(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>` +
			`<u:AddPortMappingResponse xmlns:u="urn:x"/></s:Body></s:Envelope>`)
		out, err := DeserializeResponse(raw, "AddPortMapping", wanIPConn)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("没有 Content-Length", func(t *testing.T) {
		raw := []byte("HTTP/1.0 200 OK\r\nConnection: close\r\n\r\n" +
			`<Envelope><Body><GetExternalIPAddressResponse><NewExternalIPAddress>1.2.3.4</NewExternalIPAddress>` +
			`</GetExternalIPAddressResponse></Body></Envelope>`)
		out, err := DeserializeResponse(raw, "GetExternalIPAddress", wanIPConn)
		require.NoError(t, err)
		assert.Equal(t, "1.2.3.4", out["NewExternalIPAddress"])
	})

	t.Run("Content-Length 大于实际长度", func(t *testing.T) {
		body := `<Envelope><Body><XResponse><A>1</A></XResponse></Body></Envelope>`
		raw := []byte("HTTP/1.1 200 OK\r\nContent-Length: 9999\r\n\r\n" + body)
		out, err := DeserializeResponse(raw, "X", wanIPConn)
		require.NoError(t, err)
		assert.Equal(t, "1", out["A"])
	})
}

func TestDeserializeResponse_Errors(t *testing.T) {
	t.Run("状态行格式错误", func(t *testing.T) {
		_, err := DeserializeResponse([]byte("garbage\r\n\r\n"), "X", wanIPConn)
		assert.ErrorIs(t, err, ErrMalformedStatusLine)
		assert.ErrorIs(t, err, ErrMalformedResponse)
		assert.NotErrorIs(t, err, ErrSOAPFault)
	})

	t.Run("空输入", func(t *testing.T) {
		_, err := DeserializeResponse(nil, "X", wanIPConn)
		assert.ErrorIs(t, err, ErrMalformedStatusLine)
	})

	t.Run("缺少消息体", func(t *testing.T) {
		_, err := DeserializeResponse([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"), "X", wanIPConn)
		assert.ErrorIs(t, err, ErrMissingBody)
		assert.NotErrorIs(t, err, ErrMissingResponseElement)
	})

	t.Run("缺少响应元素", func(t *testing.T) {
		_, err := DeserializeResponse([]byte(externalIPResponse), "GetStatusInfo", wanIPConn)
		assert.ErrorIs(t, err, ErrMissingResponseElement)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("500 UPnPError", func(t *testing.T) {
		body := `<?xml version="1.0"?>` +
			`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><s:Fault>` +
			`<faultcode>s:Client</faultcode><faultstring>UPnPError</faultstring>` +
			`<detail><UPnPError xmlns="urn:schemas-upnp-org:control-1-0">` +
			`<errorCode>713</errorCode><errorDescription>SpecifiedArrayIndexInvalid</errorDescription>` +
			`</UPnPError></detail></s:Fault></s:Body></s:Envelope>`
		raw := "HTTP/1.1 500 Internal Server Error\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

		_, err := DeserializeResponse([]byte(raw), "GetGenericPortMappingEntry", wanIPConn)
		require.ErrorIs(t, err, ErrSOAPFault)

		var fault *Fault
		require.True(t, errors.As(err, &fault))
		assert.Equal(t, "500 Internal Server Error", fault.Status)
		assert.Equal(t, "s:Client", fault.Code)
		assert.Equal(t, "UPnPError", fault.String)
		assert.Equal(t, CodeSpecifiedArrayIndexInvalid, fault.UPnPCode)
		assert.Equal(t, "SpecifiedArrayIndexInvalid", fault.UPnPDescription)
		assert.Equal(t, body, fault.Body)
		assert.Contains(t, fault.Error(), "713")
	})

	t.Run("非 200 且非 XML", func(t *testing.T) {
		_, err := DeserializeResponse([]byte("HTTP/1.1 404 Not Found\r\nContent-Length: 4\r\n\r\nnope"), "X", wanIPConn)
		var fault *Fault
		require.True(t, errors.As(err, &fault))
		assert.Equal(t, "404 Not Found", fault.Status)
		assert.Equal(t, "nope", fault.Body)
		assert.Equal(t, 0, fault.UPnPCode)
	})

	t.Run("200 中的 Fault", func(t *testing.T) {
		body := `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><s:Fault>` +
			`<faultcode>s:Client</faultcode><faultstring>UPnPError</faultstring>` +
			`<detail><UPnPError><errorCode>401</errorCode><errorDescription>Invalid Action</errorDescription>` +
			`</UPnPError></detail></s:Fault></s:Body></s:Envelope>`
		raw := "HTTP/1.1 200 OK\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

		_, err := DeserializeResponse([]byte(raw), "X", wanIPConn)
		var fault *Fault
		require.True(t, errors.As(err, &fault))
		assert.Equal(t, CodeInvalidAction, fault.UPnPCode)
		assert.NotErrorIs(t, err, ErrMalformedResponse)
	})
}

// ============================================================================
//                              往返测试
// ============================================================================

// conformingGateway 按请求中的方法名返回给定输出
func conformingGateway(t *testing.T, raw []byte, outputs []string) []byte {
	t.Helper()
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)

	action := strings.Trim(req.Header.Get("SOAPAction"), `"`)
	serviceType, method, ok := strings.Cut(action, "#")
	require.True(t, ok)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>`)
	b.WriteString(`<u:` + method + `Response xmlns:u="` + serviceType + `">`)
	for i, name := range outputs {
		b.WriteString("<" + name + ">v" + strconv.Itoa(i) + "</" + name + ">")
	}
	b.WriteString(`</u:` + method + `Response></s:Body></s:Envelope>`)

	body := b.String()
	return []byte("HTTP/1.1 200 OK\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body)
}

func TestRoundTrip_OutputNames(t *testing.T) {
	cases := []struct {
		method  string
		inputs  []string
		outputs []string
	}{
		{"GetExternalIPAddress", nil, []string{"NewExternalIPAddress"}},
		{"GetSpecificPortMappingEntry",
			[]string{"NewRemoteHost", "NewExternalPort", "NewProtocol"},
			[]string{"NewInternalPort", "NewInternalClient", "NewEnabled", "NewPortMappingDescription", "NewLeaseDuration"}},
		{"DeletePortMapping", []string{"NewRemoteHost", "NewExternalPort", "NewProtocol"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			values := map[string]string{}
			for _, in := range tc.inputs {
				values[in] = "x"
			}
			raw := SerializeRequest(tc.method, tc.inputs, wanIPConn, "10.0.0.1", "/ctl", values)
			out, err := DeserializeResponse(conformingGateway(t, raw, tc.outputs), tc.method, wanIPConn)
			require.NoError(t, err)

			keys := make([]string, 0, len(out))
			for _, name := range tc.outputs {
				_, ok := out[name]
				assert.True(t, ok, name)
				keys = append(keys, name)
			}
			assert.Len(t, out, len(tc.outputs))
			assert.ElementsMatch(t, tc.outputs, keys)
		})
	}
}
