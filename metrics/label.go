package metrics

// Label 指标标签，为指标附加维度信息
//
// 标签值应当是低基数的（outcome、source 等枚举值），
// 避免使用 key、请求 ID 之类的高基数标签值。
type Label struct {
	Key   string
	Value string
}

// L 创建标签的便捷函数
//
//	counter.Inc(ctx, metrics.L("outcome", "success"))
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}

// 数据访问层约定的标签键与取值
const (
	LabelKey     = "key"     // 缓存键（sectors 等少量固定键，低基数）
	LabelOutcome = "outcome" // success | failure | rejected
	LabelSource  = "source"  // network | cache | stale | fallback
	LabelState   = "state"   // closed | open | half_open
)

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)
