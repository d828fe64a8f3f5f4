package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	env, err := Decode([]byte(`{"event":"question:new","data":{"title":"T"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventQuestionNew, env.Event)
	assert.JSONEq(t, `{"title":"T"}`, string(env.Data))

	env, err = Decode([]byte(`{"event":"status:update","data":"busy"}`))
	require.NoError(t, err)
	assert.Equal(t, `"busy"`, string(env.Data))

	env, err = Decode([]byte(`{"event":"typing:stop"}`))
	require.NoError(t, err)
	assert.Empty(t, env.Data)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"data":{}}`))
	assert.ErrorIs(t, err, ErrEmptyEvent)
}

func TestEncode(t *testing.T) {
	data, err := Encode(EventPresenceStatus, Payload{"userId": "u1", "status": "busy"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"presence:status","data":{"userId":"u1","status":"busy"}}`, string(data))

	_, err = Encode("", nil)
	assert.ErrorIs(t, err, ErrEmptyEvent)
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Payload
	}{
		{"object", `{"title":"T"}`, Payload{"title": "T"}},
		{"missing", ``, Payload{}},
		{"null", `null`, Payload{}},
		{"string", `"busy"`, Payload{}},
		{"array", `[1,2]`, Payload{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePayload(json.RawMessage(tt.raw)))
		})
	}
}

func TestParsePayload_NumbersPassThrough(t *testing.T) {
	p := ParsePayload(json.RawMessage(`{"likes":12345678901234567890,"questionId":42}`))

	assert.Equal(t, "42", p.String("questionId"))

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"likes":12345678901234567890,"questionId":42}`, string(out))
}

func TestPayload_String(t *testing.T) {
	p := Payload{"s": "v", "f": 1.5, "b": true, "o": map[string]any{}}

	assert.Equal(t, "v", p.String("s"))
	assert.Equal(t, "1.5", p.String("f"))
	assert.Equal(t, "true", p.String("b"))
	assert.Equal(t, "", p.String("o"))
	assert.Equal(t, "", p.String("missing"))
}

func TestPayload_CloneAndPick(t *testing.T) {
	p := Payload{"id": "q1", "title": "T", "body": "long"}

	clone := p.Clone()
	clone["title"] = "changed"
	assert.Equal(t, "T", p["title"])

	assert.Equal(t, Payload{"id": "q1", "title": "T"}, p.Pick("id", "title", "absent"))
}

func TestStringOrField(t *testing.T) {
	assert.Equal(t, "busy", StringOrField(json.RawMessage(`"busy"`), "status"))
	assert.Equal(t, "away", StringOrField(json.RawMessage(`{"status":"away"}`), "status"))
	assert.Equal(t, "", StringOrField(json.RawMessage(`{}`), "status"))
	assert.Equal(t, "", StringOrField(nil, "status"))
}

func TestInitial(t *testing.T) {
	assert.Equal(t, "A", Initial("alice"))
	assert.Equal(t, "É", Initial("émile"))
	assert.Equal(t, "张", Initial("张三"))
	assert.Equal(t, "B", Initial("  bob"))
	assert.Equal(t, "", Initial(""))
}
