package utils

import "strings"

// 链路中常用的 Label key。
const (
	LabelRecallSource   = "recall_source"   // cf / content，融合后为 cf|content
	LabelRecallPriority = "recall_priority" // Fanout 中召回源的下标
	LabelFiltered       = "filtered"        // 被过滤时写入，Source 为过滤器名
	LabelGenre          = "genre"
	LabelEnriched       = "enriched"
)

// Label 是挂在书目或请求上的可解释标记。
// Value 可以累积多个取值（以 '|' 分隔），Source 记录写入方（recall / feature / filter.rated ...）。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Values 返回累积的全部取值。
func (l Label) Values() []string {
	if l.Value == "" {
		return nil
	}
	return strings.Split(l.Value, "|")
}

// Has 判断 v 是否在累积的取值中。
func (l Label) Has(v string) bool {
	for _, s := range l.Values() {
		if s == v {
			return true
		}
	}
	return false
}

// MergeLabel 合并同名 Label：Value 以 '|' 累积、Source 以 ',' 累积，重复的取值只保留一次。
// 同一本书被多路召回时，recall_source 因此得到 "cf|content"。
func MergeLabel(existing, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}
	return Label{
		Value:  appendUnique(existing.Value, incoming.Value, "|"),
		Source: appendUnique(existing.Source, incoming.Source, ","),
	}
}

func appendUnique(list, v, sep string) string {
	switch {
	case v == "":
		return list
	case list == "":
		return v
	}
	for _, s := range strings.Split(list, sep) {
		if s == v {
			return list
		}
	}
	return list + sep + v
}
