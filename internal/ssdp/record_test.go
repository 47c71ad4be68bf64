package ssdp

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() map[string]string {
	return map[string]string{
		"USN":           "uuid:11111111-2222-3333-4444-555555555555::urn:schemas-upnp-org:device:InternetGatewayDevice:1",
		"Server":        "Linux, UPnP/1.0, MiniUPnPd/2.1",
		"Location":      "http://10.0.0.1:49152/rootDesc.xml",
		"ST":            TargetIGD1,
		"Cache-Control": "max-age=120",
		"EXT":           "",
	}
}

func TestNewRecord(t *testing.T) {
	rec, err := NewRecord(validFields())
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1", rec.Host())
	assert.Equal(t, 49152, rec.Port())
	assert.Equal(t, "/rootDesc.xml", rec.Path())
	assert.Equal(t, "http://10.0.0.1:49152", rec.BaseAddress())
	assert.Equal(t, "max-age=120", rec.CacheControl)
	assert.Equal(t, TargetIGD1, rec.ST)

	m := rec.AsMap()
	assert.Equal(t, rec.Location, m["location"])
	assert.Equal(t, "max-age=120", m["cache-control"])
	assert.NotContains(t, m, "ext")
}

func TestNewRecord_CacheControlAlias(t *testing.T) {
	f := validFields()
	delete(f, "Cache-Control")
	f["cache_control"] = "max-age=1800"

	rec, err := NewRecord(f)
	require.NoError(t, err)
	assert.Equal(t, "max-age=1800", rec.CacheControl)
}

func TestNewRecord_MissingField(t *testing.T) {
	for _, key := range []string{"USN", "Server", "Location", "ST"} {
		t.Run(key, func(t *testing.T) {
			f := validFields()
			delete(f, key)
			_, err := NewRecord(f)
			assert.ErrorIs(t, err, ErrMissingField)
		})
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		location string
		host     string
		port     int
		path     string
		ok       bool
	}{
		{"http://10.0.0.1:49152/rootDesc.xml", "10.0.0.1", 49152, "/rootDesc.xml", true},
		{"http://192.168.1.1:1900/igd.xml?x=1", "192.168.1.1", 1900, "/igd.xml?x=1", true},
		{"HTTP://10.0.0.1:80/", "10.0.0.1", 80, "/", true},
		{"http://[fe80::1]:5000/desc.xml", "fe80::1", 5000, "/desc.xml", true},
		{"http://10.0.0.1/rootDesc.xml", "", 0, "", false},
		{"http://10.0.0.1:49152", "", 0, "", false},
		{"https://10.0.0.1:443/x", "", 0, "", false},
		{"10.0.0.1:49152/rootDesc.xml", "", 0, "", false},
		{"http://:49152/x", "", 0, "", false},
		{"http://10.0.0.1:99999/x", "", 0, "", false},
		{"", "", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			host, port, path, err := ParseLocation(tt.location)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrMalformedLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
			assert.Equal(t, tt.path, path)
		})
	}
}

func TestNewRecord_MalformedLocation(t *testing.T) {
	f := validFields()
	f["Location"] = "http://10.0.0.1/rootDesc.xml"
	_, err := NewRecord(f)
	assert.ErrorIs(t, err, ErrMalformedLocation)
}

func TestFromResponse(t *testing.T) {
	h := http.Header{}
	for k, v := range validFields() {
		h.Set(k, v)
	}
	rec, err := FromResponse(&http.Response{StatusCode: 200, Header: h})
	require.NoError(t, err)
	assert.Equal(t, "Linux, UPnP/1.0, MiniUPnPd/2.1", rec.Server)
	assert.Equal(t, 49152, rec.Port())
}

func TestRecord_BaseAddressIPv6(t *testing.T) {
	f := validFields()
	f["Location"] = "http://[fe80::1]:5000/desc.xml"
	rec, err := NewRecord(f)
	require.NoError(t, err)
	assert.Equal(t, "http://[fe80::1]:5000", rec.BaseAddress())
}
