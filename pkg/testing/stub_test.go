package testing

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubBuilderDefaults(t *testing.T) {
	stubs, err := Stub("GET", "https://api.example.com/").Build()
	require.NoError(t, err)
	require.Len(t, stubs, 1)
	assert.Equal(t, http.StatusOK, stubs[0].Status)
	assert.Nil(t, stubs[0].Body)
}

func TestStubBuilderBodies(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
		ct   string
	}{
		{"string", "plain", "plain", ""},
		{"bytes", []byte{0x01, 0x02}, "\x01\x02", ""},
		{"json", map[string]bool{"ok": true}, `{"ok":true}`, "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubs, err := Stub("GET", "https://api.example.com/").WithBody(tt.body).Build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(stubs[0].Body()))
			if tt.ct != "" {
				assert.Equal(t, tt.ct, stubs[0].ResponseHeaders.Get("Content-Type"))
			}
		})
	}
}

func TestStubBuilderTimesSharesProducer(t *testing.T) {
	calls := 0
	stubs, err := Stub("POST", "https://api.example.com/jobs").
		WithRequestHeader("X-Tenant", "a").
		WithBodyFunc(func() []byte { calls++; return []byte("job") }).
		Times(3).
		Build()
	require.NoError(t, err)
	require.Len(t, stubs, 3)
	for _, st := range stubs {
		assert.Equal(t, "job", string(st.Body()))
		assert.Equal(t, "a", st.Headers.Get("X-Tenant"))
	}
	assert.Equal(t, 1, calls)
}

func TestStubBuilderErrors(t *testing.T) {
	_, err := Stub("GET", "https://api.example.com/").WithStatus(700).Times(0).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 700")

	_, err = Stub("GET", "https://api.example.com/").WithJSON(func() {}).Build()
	assert.ErrorContains(t, err, "marshal")
}

func TestStubBuilderResponders(t *testing.T) {
	stubs, err := Stub("GET", "https://api.example.com/missing").RespondNotFound().Build()
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, stubs[0].Status)
	assert.JSONEq(t, `{"error":"not found"}`, string(stubs[0].Body()))

	stubs, err = Stub("GET", "https://api.example.com/boom").RespondServerError("db down").Build()
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, stubs[0].Status)
	assert.JSONEq(t, `{"error":"db down"}`, string(stubs[0].Body()))
	assert.Len(t, stubs[0].ResponseHeaders, 1, "Content-Type set once")
}
