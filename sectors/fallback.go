package sectors

// FallbackSnapshot 返回内置的兜底数据集。
// 远程接口与缓存都不可用时兜底给 UI，覆盖 IDX 主要板块的代表性标的
func FallbackSnapshot() *Snapshot {
	return &Snapshot{
		Sectors: map[string][]Listing{
			"Finance": {
				{Code: "BBCA", Name: "Bank Central Asia", Price: 9850, Change: 1.2},
				{Code: "BBRI", Name: "Bank Rakyat Indonesia", Price: 6125, Change: 0.8},
				{Code: "BMRI", Name: "Bank Mandiri", Price: 7200, Change: -0.5},
				{Code: "BBNI", Name: "Bank Negara Indonesia", Price: 5450, Change: 0.3},
			},
			"Technology": {
				{Code: "GOTO", Name: "GoTo Tech", Price: 85, Change: -1.4},
				{Code: "BUKA", Name: "Bukalapak", Price: 92, Change: 2.1},
			},
			"Energy": {
				{Code: "ADRO", Name: "Adaro Energy", Price: 2700, Change: 3.5},
				{Code: "PGAS", Name: "Perusahaan Gas Negara", Price: 1580, Change: 1.2},
			},
			"Consumer": {
				{Code: "UNVR", Name: "Unilever Indonesia", Price: 2850, Change: -2.2},
				{Code: "ICBP", Name: "Indofood CBP", Price: 11200, Change: 0.5},
			},
			"Telecommunications": {
				{Code: "TLKM", Name: "Telkom Indonesia", Price: 3950, Change: 2.1},
				{Code: "EXCL", Name: "XL Axiata", Price: 2320, Change: -0.8},
			},
		},
		TotalCount:  14,
		SectorCount: 5,
		Status:      "fallback",
	}
}
