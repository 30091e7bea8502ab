package utils

import "strconv"

// Label 是候选结果上的解释标签：可追踪是哪一步、因为什么给出了这个分数。
// Value 与 Source 的语义由调用方约定；这里只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // filter / recall / rerank ...
}

// IntLabel 以十进制整数作为 Value 创建 Label。
func IntLabel(n int, source string) Label {
	return Label{Value: strconv.Itoa(n), Source: source}
}

// MergeLabel 合并同名 Label，保留历史：
//   - Value: 以 '|' 累积
//   - Source: 以 ',' 累积，相同来源不重复
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "" || existing.Source == incoming.Source:
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
