package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.NoError(t, CheckPassword("secret123", hash))
	assert.Error(t, CheckPassword("wrong", hash))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestIsBcryptHash(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.True(t, IsBcryptHash(hash))
	assert.True(t, IsBcryptHash("$2b$12$abcdefghijklmnopqrstuv"))
	assert.False(t, IsBcryptHash("secret123"))
	assert.False(t, IsBcryptHash(""))
}

func TestJWTManager(t *testing.T) {
	manager := NewJWTManager("test-secret", "HS256", time.Hour)

	token, err := manager.GenerateToken(42, "alice", true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.IsAdmin)
}

func TestJWTManagerRejectsTamperedToken(t *testing.T) {
	manager := NewJWTManager("test-secret", "HS256", time.Hour)
	other := NewJWTManager("other-secret", "HS256", time.Hour)

	token, err := other.GenerateToken(1, "bob", false)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManagerRejectsForeignIssuer(t *testing.T) {
	manager := NewJWTManager("test-secret", "HS256", time.Hour)

	claims := &JWTClaims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManagerRejectsExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", "HS256", -time.Minute)

	token, err := manager.GenerateToken(1, "bob", false)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestParseSamples(t *testing.T) {
	// JSON数组
	arr, err := ParseSamples([]byte(`[{"instruction": "a"}, {"instruction": "b"}]`))
	require.NoError(t, err)
	assert.Len(t, arr, 2)

	// JSONL
	jsonl, err := ParseSamples([]byte("{\"instruction\": \"a\"}\n\n{\"instruction\": \"b\"}\n"))
	require.NoError(t, err)
	assert.Len(t, jsonl, 2)

	_, err = ParseSamples([]byte("{bad json}"))
	assert.Error(t, err)
}

func TestConvertCSVToSamples(t *testing.T) {
	csvContent := "instruction,input,response\n分析,数据,结果\n"
	samples, err := ConvertCSVToSamples([]byte(csvContent))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "分析", samples[0]["instruction"])
	assert.Equal(t, "结果", samples[0]["response"])
}

func TestConvertCSVToSamplesWithBOM(t *testing.T) {
	csvContent := "\xEF\xBB\xBFinstruction,input,response\na,b,c\n"
	samples, err := ConvertCSVToSamples([]byte(csvContent))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "a", samples[0]["instruction"])
}

func TestConvertCSVToSamplesMissingColumn(t *testing.T) {
	_, err := ConvertCSVToSamples([]byte("instruction,input\na,b\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response")
}

func TestConvertToJSONL(t *testing.T) {
	data := []map[string]interface{}{
		{"a": "1"},
		{"a": "2"},
	}
	out, err := ConvertToJSONL(data)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":\"1\"}\n{\"a\":\"2\"}\n", string(out))
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "application/json", DetectContentType([]byte(`[{"a":1}]`)))
	assert.Equal(t, "application/x-jsonlines", DetectContentType([]byte(`{"a":1}`)))
	assert.Equal(t, "text/csv", DetectContentType([]byte("a,b\n1,2")))
}

func TestResponseEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SuccessResponse(c, gin.H{"id": 1})

	require.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "成功", resp.Message)
	assert.NotNil(t, resp.Data)
}

func TestErrorResponseEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	BadRequest(c, "参数错误")

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "参数错误", resp.Message)
	assert.Nil(t, resp.Data)
}

func TestPaginatedResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	PaginatedResponse(c, []int{1, 2, 3, 4, 5}, 11, 2, 5)

	require.Equal(t, http.StatusOK, w.Code)
	var resp PaginationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(11), resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 5, resp.Pagination.PerPage)
	assert.Equal(t, 3, resp.Pagination.Pages)
}

func TestValidateStruct(t *testing.T) {
	type form struct {
		Username string `validate:"required,username"`
	}

	assert.NoError(t, ValidateStruct(&form{Username: "valice_01"}))
	assert.Error(t, ValidateStruct(&form{Username: "ab"}))
	assert.Error(t, ValidateStruct(&form{Username: "bad name!"}))
	assert.Error(t, ValidateStruct(&form{}))
}
