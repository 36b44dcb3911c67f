package node

import "strings"

const (
	fenceMarker     = "```"
	jsonFenceMarker = "```json"
)

// ExtractJSONBlock 从模型输出中尽力截取 JSON 子串。
// 模型可能把 JSON 包在代码围栏里，或在前后夹杂多余文本：
//  1. 优先取第一个 ```json 围栏到下一个 ``` 之间的内容；
//  2. 否则取第一对 ``` 围栏之间的内容；
//  3. 否则使用整段文本。
//
// 然后截取首个 '{' 到最后一个 '}' 的闭区间；两者缺一或顺序颠倒时原样返回。
// 这里不做任何 JSON 校验，是否可解析由调用方决定。
func ExtractJSONBlock(s string) string {
	raw := strings.TrimSpace(s)

	if idx := strings.Index(raw, jsonFenceMarker); idx >= 0 {
		rest := raw[idx+len(jsonFenceMarker):]
		if end := strings.Index(rest, fenceMarker); end >= 0 {
			raw = strings.TrimSpace(rest[:end])
		} else {
			raw = strings.TrimSpace(rest)
		}
	} else if idx := strings.Index(raw, fenceMarker); idx >= 0 {
		rest := raw[idx+len(fenceMarker):]
		if end := strings.Index(rest, fenceMarker); end >= 0 {
			raw = strings.TrimSpace(rest[:end])
		} else {
			raw = strings.TrimSpace(rest)
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
