package repository

// VoucherListFilter 查询兑换券列表的过滤条件
// Keyword 匹配名称、订单号以及兑换记录中的影片与外部券号
type VoucherListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	Status   string
}
