package constants

import "time"

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// EntitySession 分析会话实体
	EntitySession = "session"
	// EntityLock 分布式锁实体
	EntityLock = "lock"

	// KeySession 分析会话 (STRING, JSON)
	// 格式: app:session:{sessionID}
	KeySession = AppPrefix + ":" + EntitySession + ":%s"

	// KeyAnalyzeLock 同一会话同时只允许一次分析 (STRING)
	// 格式: app:lock:analyze:{sessionID}
	KeyAnalyzeLock = AppPrefix + ":" + EntityLock + ":analyze:%s"
)

// DefaultSessionTTL 会话默认过期时间
const DefaultSessionTTL = time.Hour
