package constants

import "time"

const (
	// ParserVersion 写入提交记录与缓存键，规则变化时递增以使旧缓存失效
	ParserVersion = "bg-optic-1.0"

	// DefaultParseCacheTTL 解析结果缓存默认时长
	DefaultParseCacheTTL = 7 * 24 * time.Hour
	// ParseLockTTL 同一份 BG XML 并发解析时的锁时长
	ParseLockTTL = 30 * time.Second
	// XMLDedupTTL BG XML 去重记录保留时长
	XMLDedupTTL = 365 * 24 * time.Hour
)

// 提交记录处理状态
const (
	StatusPendingParse = "PENDING_PARSE"
	StatusParsed       = "PARSED"
	StatusParseFailed  = "PARSE_FAILED"
)

// 事件类型
const (
	EventCandidateParsed = "candidate.parsed"
)

// 来源渠道
const (
	SourceChannelAPI   = "api"
	SourceChannelQueue = "queue"
	SourceChannelCLI   = "cli"
)
