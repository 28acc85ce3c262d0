package engine

import "github.com/rushteam/bookrec/core"

// LiveModel 每次调用都读取 Engine 的当前模型，重新训练后自动生效。
// 还没有模型时所有查询返回空列表；需要先训练的调用方应先调用 Engine.Model。
type LiveModel struct {
	e *Engine
}

// Live 返回绑定到当前模型的召回模型，供配置驱动的 Pipeline 使用。
func (e *Engine) Live() *LiveModel {
	return &LiveModel{e: e}
}

func (l *LiveModel) Collaborative(userID string, n int) []core.ScoredID {
	m := l.e.current.Load()
	if m == nil {
		return nil
	}
	return m.Collaborative(userID, n)
}

func (l *LiveModel) Content(liked []core.Rating, rated map[string]struct{}, n int) []core.ScoredID {
	m := l.e.current.Load()
	if m == nil {
		return nil
	}
	return m.Content(liked, rated, n)
}
