package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func requestWithOrigin(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginPolicy(t *testing.T) {
	policy := newOriginPolicy([]string{"HTTP://LocalHost:8080", "  ", "not a url"})

	assert.True(t, policy.checkOrigin(requestWithOrigin("http://localhost:8080")))
	assert.False(t, policy.checkOrigin(requestWithOrigin("http://localhost:9090")))
	assert.False(t, policy.checkOrigin(requestWithOrigin("")))
	assert.False(t, policy.checkOrigin(requestWithOrigin("::::")))
	assert.Len(t, policy.allowed, 1)
}

func TestOriginPolicy_Wildcard(t *testing.T) {
	policy := newOriginPolicy([]string{"*"})

	assert.True(t, policy.allows(requestWithOrigin("https://anywhere.example")))
	assert.False(t, policy.allows(requestWithOrigin("")), "an Origin header is still required")
}
