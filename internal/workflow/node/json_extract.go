package node

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject 从模型输出中截取第一个完整的 JSON 对象或数组。
// 模型常在 JSON 前后夹杂说明文字或代码块标记；找不到时原样返回（去掉首尾空白）。
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' && raw[i] != '[' {
			continue
		}
		var v json.RawMessage
		if err := json.NewDecoder(strings.NewReader(raw[i:])).Decode(&v); err == nil {
			return string(v)
		}
	}
	return raw
}
