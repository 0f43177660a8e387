package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Login(t *testing.T) {
	t.Run("decodes the token response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/v1/auth/login", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "a@b.com", body["email"])
			assert.Equal(t, "x", body["password"])

			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "T1",
				"refresh_token": "R1",
				"expires_in":    3600,
				"user":          map[string]any{"id": 1, "email": "a@b.com", "full_name": "Ada"},
			})
		}))
		defer server.Close()

		client := NewClient(Config{ServerURL: server.URL})
		resp, err := client.Login(context.Background(), "a@b.com", "x")
		require.NoError(t, err)

		assert.Equal(t, "T1", resp.AccessToken)
		assert.Equal(t, "R1", resp.RefreshToken)
		assert.Equal(t, int64(3600), resp.ExpiresIn)
		require.NotNil(t, resp.User)
		assert.Equal(t, int64(1), resp.User.ID)
	})

	t.Run("rejected credentials surface as an unauthenticated error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "invalid credentials"})
		}))
		defer server.Close()

		client := NewClient(Config{ServerURL: server.URL})
		_, err := client.Login(context.Background(), "a@b.com", "wrong")
		require.Error(t, err)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsUnauthenticated())
		assert.Equal(t, "invalid credentials", apiErr.Detail)
	})
}

func TestClient_Signup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/signup", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ada Lovelace", body["full_name"])
		assert.Equal(t, "Analytical Engines", body["company_name"])

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "T1",
			"user":         map[string]any{"id": 2, "email": "a@b.com"},
		})
	}))
	defer server.Close()

	client := NewClient(Config{ServerURL: server.URL})
	resp, err := client.Signup(context.Background(), SignupParams{
		Email:       "a@b.com",
		Password:    "x",
		FullName:    "Ada Lovelace",
		CompanyName: "Analytical Engines",
	})
	require.NoError(t, err)
	assert.Equal(t, "T1", resp.AccessToken)
}

func TestClient_Refresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/refresh-token", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "R1", body["refresh_token"])

		json.NewEncoder(w).Encode(map[string]any{"access_token": "T2", "expires_in": 3600})
	}))
	defer server.Close()

	client := NewClient(Config{ServerURL: server.URL})
	resp, err := client.Refresh(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "T2", resp.AccessToken)
}

func TestClient_CurrentUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/me", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"id": 1, "email": "a@b.com", "full_name": "Ada", "is_scrum_master": true,
			"teams": []map[string]any{{"id": 7, "name": "Platform", "role": "scrum_master", "is_active": true}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{ServerURL: server.URL})
	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	assert.True(t, user.IsScrumMaster)
	require.Len(t, user.Teams, 1)
	assert.Equal(t, "Platform", user.Teams[0].Name)
}

func TestClient_PasswordReset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/forgot-password":
			w.WriteHeader(http.StatusAccepted)
		case "/api/v1/auth/reset-password":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["token"] != "good" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"detail": "invalid reset token"})
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(Config{ServerURL: server.URL})

	require.NoError(t, client.ForgotPassword(context.Background(), "a@b.com"))
	require.NoError(t, client.ResetPassword(context.Background(), "good", "new-password"))

	err := client.ResetPassword(context.Background(), "bad", "new-password")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid reset token", apiErr.Detail)
}
