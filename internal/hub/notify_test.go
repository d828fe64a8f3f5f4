package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotification_Validate(t *testing.T) {
	tests := []struct {
		name    string
		n       Notification
		wantErr bool
	}{
		{"user", Notification{Kind: KindUser, Target: "u1", Event: "e"}, false},
		{"scope", Notification{Kind: KindScope, Target: "MIT", Event: "e"}, false},
		{"room", Notification{Kind: KindRoom, Target: "q1", Event: "e"}, false},
		{"all", Notification{Kind: KindAll, Event: "e"}, false},
		{"missing event", Notification{Kind: KindAll}, true},
		{"missing target", Notification{Kind: KindUser, Event: "e"}, true},
		{"unknown kind", Notification{Kind: "planet", Event: "e"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.n.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidNotification)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHub_Notify(t *testing.T) {
	env := newTestEnv(t)
	a := env.admit(t, "c1", "u1", "alice", "MIT")
	b := env.admit(t, "c2", "u2", "bob", "MIT")
	c := env.admit(t, "c3", "u3", "carol", "Stanford")
	env.emit(t, c, "room:join", "q1")
	resetAll(a, b, c)

	data := json.RawMessage(`{"id":"q1","answers":3}`)

	n, err := env.hub.Notify(Notification{Kind: KindUser, Target: "u1", Event: "answer:accepted", Data: data})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got := a.eventsNamed(t, "answer:accepted")
	require.Len(t, got, 1)
	assert.Equal(t, float64(3), got[0].Data["answers"])

	n, err = env.hub.Notify(Notification{Kind: KindUser, Target: "ghost", Event: "answer:accepted"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = env.hub.Notify(Notification{Kind: KindScope, Target: "MIT", Event: "question:posted", Data: data})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = env.hub.Notify(Notification{Kind: KindRoom, Target: "q1", Event: "answer:posted", Data: data})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, c.eventsNamed(t, "answer:posted"), 1)

	n, err = env.hub.Notify(Notification{Kind: KindAll, Event: "maintenance"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = env.hub.Notify(Notification{Kind: KindAll})
	assert.ErrorIs(t, err, ErrInvalidNotification)
}
