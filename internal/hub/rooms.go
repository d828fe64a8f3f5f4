package hub

const RoomGlobal = "global"

// ScopeRoom 组织（学校）房间名
func ScopeRoom(scopeTag string) string {
	return "scope:" + scopeTag
}

// Rooms 房间成员关系
// 房间不持久化，成员随连接断开消失；非并发安全，只在 hub 循环内访问
type Rooms struct {
	members map[string]map[string]Conn     // room -> connID -> Conn
	joined  map[string]map[string]struct{} // connID -> rooms
}

// NewRooms 创建空成员关系
func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[string]map[string]Conn),
		joined:  make(map[string]map[string]struct{}),
	}
}

// Join 加入房间，重复加入无副作用；空房间名被忽略
func (r *Rooms) Join(conn Conn, room string) bool {
	if room == "" {
		return false
	}

	members, ok := r.members[room]
	if !ok {
		members = make(map[string]Conn)
		r.members[room] = members
	}
	if _, ok := members[conn.ID()]; ok {
		return false
	}
	members[conn.ID()] = conn

	if r.joined[conn.ID()] == nil {
		r.joined[conn.ID()] = make(map[string]struct{})
	}
	r.joined[conn.ID()][room] = struct{}{}
	return true
}

// Leave 离开房间，未加入时为空操作
func (r *Rooms) Leave(connID, room string) bool {
	members, ok := r.members[room]
	if !ok {
		return false
	}
	if _, ok := members[connID]; !ok {
		return false
	}

	delete(members, connID)
	if len(members) == 0 {
		delete(r.members, room)
	}

	if rooms := r.joined[connID]; rooms != nil {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.joined, connID)
		}
	}
	return true
}

// LeaveAll 连接断开时退出所有房间
func (r *Rooms) LeaveAll(connID string) {
	for room := range r.joined[connID] {
		if members, ok := r.members[room]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(r.members, room)
			}
		}
	}
	delete(r.joined, connID)
}

// Members 房间当前成员
func (r *Rooms) Members(room string) []Conn {
	members := r.members[room]
	conns := make([]Conn, 0, len(members))
	for _, conn := range members {
		conns = append(conns, conn)
	}
	return conns
}

// RoomsOf 连接已加入的房间
func (r *Rooms) RoomsOf(connID string) []string {
	rooms := make([]string, 0, len(r.joined[connID]))
	for room := range r.joined[connID] {
		rooms = append(rooms, room)
	}
	return rooms
}

// Size 房间成员数
func (r *Rooms) Size(room string) int {
	return len(r.members[room])
}

// Reset 清空所有房间
func (r *Rooms) Reset() {
	r.members = make(map[string]map[string]Conn)
	r.joined = make(map[string]map[string]struct{})
}
