package scpd

import (
	"strings"

	"github.com/dep2p/go-igd/internal/xmltree"
)

// ActionSpec 从 SCPD 文档中提取的一个动作
type ActionSpec struct {
	Name string

	// Inputs direction=in 的参数名，保持文档顺序
	Inputs []string

	// Outputs direction=out 的参数名，保持文档顺序
	Outputs []string
}

// ExtractActions 提取文档中的全部动作
//
// doc 可以是 scpd 根元素，也可以是任何直接包含 actionList 的元素。
// 没有 actionList 或 actionList 为空时返回空列表。
func ExtractActions(doc *xmltree.Element) []ActionSpec {
	actionList := doc.Child("actionList")
	if actionList.IsEmpty() {
		return []ActionSpec{}
	}

	actions := actionList.All("action")
	result := make([]ActionSpec, 0, len(actions))
	for _, action := range actions {
		name := action.ChildText("name")
		if name == "" {
			log.Debug("跳过无名称的动作")
			continue
		}

		spec := ActionSpec{Name: name, Inputs: []string{}, Outputs: []string{}}
		for _, arg := range action.Child("argumentList").All("argument") {
			argName := arg.ChildText("name")
			switch strings.ToLower(arg.ChildText("direction")) {
			case "in":
				spec.Inputs = append(spec.Inputs, argName)
			case "out":
				spec.Outputs = append(spec.Outputs, argName)
			}
		}
		result = append(result, spec)
	}
	return result
}
