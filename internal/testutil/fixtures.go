package testutil

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MintToken signs a throwaway HS256 JWT carrying a username claim and
// the given time to expiry.
func MintToken(t *testing.T, username string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(expiresIn).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// SampleLoginResponse returns a valid authentication response body.
func SampleLoginResponse(accessToken, refreshToken, username string) []byte {
	resp := map[string]any{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"username":     username,
		"XAuthUserId":  username,
		"plan":         "pro",
	}
	data, _ := json.Marshal(resp)
	return data
}

// SampleTableRows returns n rows for a list endpoint, as a bare array.
func SampleTableRows(n int) []byte {
	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = map[string]any{
			"id":         fmt.Sprintf("row-%d", i+1),
			"name":       fmt.Sprintf("Item %d", i+1),
			"price":      float64(i+1) * 10,
			"created_at": "2026-08-30T12:00:00Z",
		}
	}
	data, _ := json.Marshal(rows)
	return data
}

// SamplePaginatedRows returns n rows wrapped in the paginated envelope.
func SamplePaginatedRows(n, page, limit, total int) []byte {
	var rows []map[string]any
	json.Unmarshal(SampleTableRows(n), &rows)
	data, _ := json.Marshal(map[string]any{
		"data": rows,
		"pagination": map[string]int{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
	return data
}
