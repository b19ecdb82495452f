package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseMetaReachesWrittenBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ResponseMeta())
	router.GET("/standings", func(c *gin.Context) {
		AddMeta(c, "count", 3)
		c.JSON(http.StatusOK, gin.H{"meta": ExtractMeta(c)})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/standings", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body.Meta["count"])
	// The timing must be stamped before the body is serialized, not
	// after the handler chain unwinds.
	_, ok := body.Meta["processing_time_ms"]
	assert.True(t, ok)
}

func TestExtractMetaWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))
}

func TestAddMetaSeedsMapWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	AddMeta(c, "count", 1)
	meta := ExtractMeta(c)
	require.NotNil(t, meta)
	assert.EqualValues(t, 1, meta["count"])
}
