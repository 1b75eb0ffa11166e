package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// ParseModulePrefix 解析模块
	ParseModulePrefix = "parse"
	// FileModulePrefix 文件模块
	FileModulePrefix = "file"

	// EntityCandidate 候选人实体
	EntityCandidate = "candidate"
	// EntityLock 分布式锁实体
	EntityLock = "lock"
	// EntityMD5ToUUID MD5到UUID的映射实体
	EntityMD5ToUUID = "md5_to_uuid"

	// KeyParsedCandidate 解析结果缓存 (STRING, JSON)
	// 格式: app:parse:candidate:{parserVersion}:{xmlMD5}
	KeyParsedCandidate = AppPrefix + ":" + ParseModulePrefix + ":" + EntityCandidate + ":%s:%s"

	// KeyParseLock 同一份XML的解析锁 (STRING)
	// 格式: app:parse:lock:{xmlMD5}
	KeyParseLock = AppPrefix + ":" + ParseModulePrefix + ":" + EntityLock + ":%s"

	// KeyXMLMD5ToSubmissionUUID BG XML MD5到SubmissionUUID的映射 (STRING)
	// 格式: app:file:md5_to_uuid:{md5}
	KeyXMLMD5ToSubmissionUUID = AppPrefix + ":" + FileModulePrefix + ":" + EntityMD5ToUUID + ":%s"
)
