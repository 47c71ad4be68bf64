// Package device 解析 UPnP 根设备描述，构建设备树
package device

import (
	"strings"

	"github.com/dep2p/go-igd/internal/xmltree"
)

// Service 设备提供的一个 UPnP 服务
type Service struct {
	ServiceType string `json:"serviceType"`
	ServiceID   string `json:"serviceId"`

	// ControlURL SOAP 请求的 POST 地址
	ControlURL string `json:"controlURL"`

	EventSubURL string `json:"eventSubURL"`

	// SCPDURL 服务描述（动作列表）的地址
	SCPDURL string `json:"SCPDURL"`
}

// Device 设备节点，可以嵌套子设备
type Device struct {
	DeviceType       string `json:"deviceType"`
	FriendlyName     string `json:"friendlyName"`
	Manufacturer     string `json:"manufacturer"`
	ManufacturerURL  string `json:"manufacturerURL,omitempty"`
	ModelDescription string `json:"modelDescription,omitempty"`
	ModelName        string `json:"modelName"`
	ModelNumber      string `json:"modelNumber,omitempty"`
	ModelURL         string `json:"modelURL,omitempty"`
	SerialNumber     string `json:"serialNumber,omitempty"`
	UDN              string `json:"UDN"`
	PresentationURL  string `json:"presentationURL,omitempty"`

	Services []*Service `json:"services,omitempty"`
	Devices  []*Device  `json:"devices,omitempty"`
}

// Description 根设备描述文档
type Description struct {
	// SpecVersion 形如 "1.0"，文档未声明时为空
	SpecVersion string

	// URLBase 文档声明的 URLBase，可能为空
	URLBase string

	// Root 根设备，文档为空时为 nil
	Root *Device
}

// ParseDescription 从根设备描述构建设备树
//
// root 为 nil 时返回空描述。
func ParseDescription(root *xmltree.Element) *Description {
	desc := &Description{}
	if root == nil {
		return desc
	}

	if sv := root.Child("specVersion"); sv != nil {
		major, minor := sv.ChildText("major"), sv.ChildText("minor")
		if major != "" {
			if minor == "" {
				minor = "0"
			}
			desc.SpecVersion = major + "." + minor
		}
	}
	desc.URLBase = root.ChildText("URLBase")

	if d := root.Child("device"); d != nil {
		desc.Root = parseDevice(d)
	}
	return desc
}

func parseDevice(el *xmltree.Element) *Device {
	d := &Device{
		DeviceType:       el.ChildText("deviceType"),
		FriendlyName:     el.ChildText("friendlyName"),
		Manufacturer:     el.ChildText("manufacturer"),
		ManufacturerURL:  el.ChildText("manufacturerURL"),
		ModelDescription: el.ChildText("modelDescription"),
		ModelName:        el.ChildText("modelName"),
		ModelNumber:      el.ChildText("modelNumber"),
		ModelURL:         el.ChildText("modelURL"),
		SerialNumber:     el.ChildText("serialNumber"),
		UDN:              el.ChildText("UDN"),
		PresentationURL:  el.ChildText("presentationURL"),
	}

	for _, s := range el.Child("serviceList").All("service") {
		d.Services = append(d.Services, &Service{
			ServiceType: s.ChildText("serviceType"),
			ServiceID:   s.ChildText("serviceId"),
			ControlURL:  s.ChildText("controlURL"),
			EventSubURL: s.ChildText("eventSubURL"),
			SCPDURL:     s.ChildText("SCPDURL"),
		})
	}
	for _, child := range el.Child("deviceList").All("device") {
		d.Devices = append(d.Devices, parseDevice(child))
	}
	return d
}

// Walk 深度优先遍历设备树（先父后子，保持文档顺序）
func (d *Device) Walk(fn func(*Device)) {
	if d == nil {
		return
	}
	fn(d)
	for _, child := range d.Devices {
		child.Walk(fn)
	}
}

// Devices 按文档顺序展开的全部设备
func (desc *Description) Devices() []*Device {
	var out []*Device
	desc.Root.Walk(func(d *Device) { out = append(out, d) })
	return out
}

// Services 按文档顺序展开的全部服务
func (desc *Description) Services() []*Service {
	var out []*Service
	desc.Root.Walk(func(d *Device) { out = append(out, d.Services...) })
	return out
}

// UniqueServices 每个服务类型一项，按类型首次出现的顺序排列
//
// 类型重复时取后出现的服务，与 ServiceIndex 一致。
func (desc *Description) UniqueServices() []*Service {
	var out []*Service
	pos := make(map[string]int)
	for _, s := range desc.Services() {
		if i, ok := pos[s.ServiceType]; ok {
			out[i] = s
			continue
		}
		pos[s.ServiceType] = len(out)
		out = append(out, s)
	}
	return out
}

// ServiceIndex 服务类型 → 服务；类型重复时后出现的覆盖先出现的
func (desc *Description) ServiceIndex() map[string]*Service {
	idx := make(map[string]*Service)
	for _, s := range desc.Services() {
		idx[s.ServiceType] = s
	}
	return idx
}

// DeviceIndex UDN → 设备
func (desc *Description) DeviceIndex() map[string]*Device {
	idx := make(map[string]*Device)
	for _, d := range desc.Devices() {
		idx[d.UDN] = d
	}
	return idx
}

// LookupService 按服务类型查找（不区分大小写）
func LookupService(services []*Service, serviceType string) (*Service, bool) {
	for _, s := range services {
		if strings.EqualFold(s.ServiceType, serviceType) {
			return s, true
		}
	}
	return nil, false
}
