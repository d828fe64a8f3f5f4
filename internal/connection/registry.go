package connection

// Registry userID -> 最新连接元数据
// 非并发安全：只允许 hub 事件循环访问
// 同一用户的新连接会覆盖旧连接，旧连接仍留在房间中但无法被定向投递
type Registry struct {
	records map[string]*Record
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]*Record),
	}
}

// Register 写入或覆盖 userID 的记录
func (r *Registry) Register(userID string, record Record) {
	record.UserID = userID
	r.records[userID] = &record
}

// Unregister 移除 userID 的记录，不存在时为空操作
func (r *Registry) Unregister(userID string) bool {
	if _, ok := r.records[userID]; !ok {
		return false
	}
	delete(r.records, userID)
	return true
}

// UnregisterIf 仅当记录仍属于 connID 时移除
// 旧连接断开时不能清掉同一用户更新的连接
func (r *Registry) UnregisterIf(userID, connID string) bool {
	record, ok := r.records[userID]
	if !ok || record.ConnectionID != connID {
		return false
	}
	delete(r.records, userID)
	return true
}

// Lookup 查询记录，返回副本
func (r *Registry) Lookup(userID string) (Record, bool) {
	record, ok := r.records[userID]
	if !ok {
		return Record{}, false
	}
	return *record, true
}

// SetStatus 更新在线状态，用户不在线返回 false
func (r *Registry) SetStatus(userID, status string) bool {
	record, ok := r.records[userID]
	if !ok {
		return false
	}
	record.Status = status
	return true
}

// All 返回调用时刻的快照，顺序不保证
func (r *Registry) All() []Record {
	records := make([]Record, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, *record)
	}
	return records
}

// Count 在线用户数
func (r *Registry) Count() int {
	return len(r.records)
}
