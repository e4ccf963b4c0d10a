package sectors

import (
	"encoding/json"

	"github.com/ceyewan/marketdata/xerrors"
)

// Listing 单只股票的行情条目
type Listing struct {
	Code   string  `json:"code" msgpack:"code"`
	Name   string  `json:"name" msgpack:"name"`
	Price  float64 `json:"price" msgpack:"price"`
	Change float64 `json:"change" msgpack:"change"`
}

// Snapshot 按板块分组的全市场快照，对应远程接口的响应信封
type Snapshot struct {
	Sectors     map[string][]Listing `json:"sectors" msgpack:"sectors"`
	TotalCount  int                  `json:"total_count" msgpack:"total_count"`
	SectorCount int                  `json:"sector_count" msgpack:"sector_count"`
	Status      string               `json:"status" msgpack:"status"`
	LastUpdate  string               `json:"last_update,omitempty" msgpack:"last_update,omitempty"`
}

// Empty 判断快照是否不含任何板块数据。
// 空快照对调用方没有价值，读取路径上按缓存未命中处理
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Sectors) == 0
}

// Source 标记一次 Load 结果的数据来源
type Source string

const (
	// SourceNetwork 本次调用从远程拉取的新数据
	SourceNetwork Source = "network"
	// SourceCache 新鲜的缓存数据
	SourceCache Source = "cache"
	// SourceStale 过期的缓存数据，后台重校验已触发
	SourceStale Source = "stale"
	// SourceFallback 内置兜底数据，远程与缓存均不可用
	SourceFallback Source = "fallback"
)

// Result Load/Refresh 的返回值：快照加数据来源标记。
// Source 为 fallback 时调用方可以展示"离线数据"之类的提示，
// 但这不是错误
type Result struct {
	Snapshot *Snapshot
	Source   Source
}

// decodeSnapshot 解析远程响应，形状不对时返回错误
func decodeSnapshot(payload []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, xerrors.Wrap(err, "sectors: decode snapshot")
	}
	if snap.Sectors == nil {
		return nil, xerrors.New("sectors: response missing sectors field")
	}
	return &snap, nil
}
