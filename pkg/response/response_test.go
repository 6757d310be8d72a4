package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

func newContext(accept string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/requests", nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	c.Request = req
	return c, w
}

func TestErrorSuppressesInternalDetail(t *testing.T) {
	c, w := newContext("application/json")
	Error(c, errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, appErrors.ErrInternal.Message, env.Message)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Len(t, c.Errors, 1)
}

func TestFailRedirectsBrowserCallers(t *testing.T) {
	c, w := newContext("text/html")
	Fail(c, appErrors.Clone(appErrors.ErrConflict, "already paid"), "/citizen/track")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/citizen/track?error=already+paid", w.Header().Get("Location"))
}

func TestRespondJSONForAPICallers(t *testing.T) {
	c, w := newContext("application/json")
	Respond(c, http.StatusCreated, "Request submitted", gin.H{"id": "r1"}, "/citizen/track")

	assert.Equal(t, http.StatusCreated, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "Request submitted", env.Message)
}

func TestRespondRedirectAppendsFlag(t *testing.T) {
	c, w := newContext("")
	Respond(c, http.StatusOK, "saved", nil, "/admin/users?page=2")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/users?page=2&success=saved", w.Header().Get("Location"))
}
