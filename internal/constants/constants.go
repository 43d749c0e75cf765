package constants

// 兑换券状态常量
const (
	VoucherStatusValid             = "valid"
	VoucherStatusPartiallyRedeemed = "partially_redeemed"
	VoucherStatusFullyRedeemed     = "fully_redeemed"
)

// 兑换券展示状态（派生值，不落库）
const (
	VoucherDisplayValid             = "valid"
	VoucherDisplayPartiallyRedeemed = "partially_redeemed"
	VoucherDisplayRedeemed          = "redeemed"
	VoucherDisplayExpired           = "expired"
)

// 过期紧迫度分级
const (
	ExpiryTierExpired = "expired"
	ExpiryTierUrgent  = "urgent"
	ExpiryTierSoon    = "soon"
	ExpiryTierFine    = "fine"
)

// 状态色
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
	ColorOrange = "orange"
	ColorBlue   = "blue"
)

// 兑换券默认值
const (
	DefaultVoucherUsageLimit = 1
	DaysPerMonth             = 30.44
	ExpiryUrgentMonths       = 2
	ExpirySoonMonths         = 6
	StatusColorWarnDays      = 30
	TermsPreviewRunes        = 50
)

// 存储键常量
const (
	StorageKeyLocations     = "kinogutschein-locations"
	SettingKeyEditorState   = "editor_state"
	SettingKeyVoucherSeeded = "voucher_seed_done"
)

// 地点存储后端
const (
	LocationBackendDatabase = "database"
	LocationBackendRedis    = "redis"
)

// 导出格式
const (
	ExportFormatCSV  = "csv"
	ExportFormatTXT  = "txt"
	ExportFormatXLSX = "xlsx"
	ExportFormatPDF  = "pdf"
)

// 时间格式
const (
	TimeOfDayLayout            = "15:04"
	TimeOfDayWithSecondsLayout = "15:04:05"
)
