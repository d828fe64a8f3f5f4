package nats

// NATS Subject 常量定义
const (
	// SubjectNotify CRUD -> 所有实时节点 的下行通知
	// 每个节点只持有本机连接，因此使用普通订阅而不是队列组
	SubjectNotify = "campus.realtime.notify"
)
