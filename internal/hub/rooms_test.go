package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRooms_JoinIdempotent(t *testing.T) {
	r := NewRooms()
	c := newMockConn("c1")

	assert.True(t, r.Join(c, "q1"))
	assert.False(t, r.Join(c, "q1"))
	assert.Equal(t, 1, r.Size("q1"))
	assert.Equal(t, []string{"q1"}, r.RoomsOf("c1"))
}

func TestRooms_EmptyNameIgnored(t *testing.T) {
	r := NewRooms()

	assert.False(t, r.Join(newMockConn("c1"), ""))
	assert.Equal(t, 0, r.Size(""))
	assert.Empty(t, r.Members(""))
}

func TestRooms_Leave(t *testing.T) {
	r := NewRooms()
	c1, c2 := newMockConn("c1"), newMockConn("c2")
	r.Join(c1, "q1")
	r.Join(c2, "q1")

	assert.True(t, r.Leave("c1", "q1"))
	assert.Equal(t, 1, r.Size("q1"))
	assert.Empty(t, r.RoomsOf("c1"))

	// 未加入的房间
	assert.False(t, r.Leave("c1", "q1"))
	assert.False(t, r.Leave("c1", "never"))

	assert.True(t, r.Leave("c2", "q1"))
	assert.Equal(t, 0, r.Size("q1"))
}

func TestRooms_LeaveAll(t *testing.T) {
	r := NewRooms()
	c1, c2 := newMockConn("c1"), newMockConn("c2")
	r.Join(c1, RoomGlobal)
	r.Join(c1, ScopeRoom("MIT"))
	r.Join(c1, "q1")
	r.Join(c2, RoomGlobal)

	r.LeaveAll("c1")

	assert.Empty(t, r.RoomsOf("c1"))
	assert.Equal(t, 1, r.Size(RoomGlobal))
	assert.Equal(t, 0, r.Size(ScopeRoom("MIT")))
	assert.Equal(t, 0, r.Size("q1"))

	members := r.Members(RoomGlobal)
	assert.Len(t, members, 1)
	assert.Equal(t, "c2", members[0].ID())
}

func TestRooms_ArbitraryNames(t *testing.T) {
	r := NewRooms()
	c := newMockConn("c1")

	// 房间名不做命名空间校验
	for _, name := range []string{"scope:Harvard", "global", "任意房间", "a b c"} {
		assert.True(t, r.Join(c, name))
	}
	assert.Len(t, r.RoomsOf("c1"), 4)
}

func TestScopeRoom(t *testing.T) {
	assert.Equal(t, "scope:MIT", ScopeRoom("MIT"))
}
