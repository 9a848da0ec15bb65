package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycloudhq/mycloud/internal/app"
	"github.com/mycloudhq/mycloud/internal/config"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.App) {
	t.Helper()

	cfg := &config.Config{
		AppName:       "My Cloud",
		AppEnv:        "development",
		AppURL:        "http://cloud.test",
		DBDriver:      "sqlite",
		DBConnection:  filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)",
		JWTSecret:     "test-secret",
		JWTExpiry:     time.Hour,
		ShareLinkTTL:  7 * 24 * time.Hour,
		MaxUploadSize: 10 << 20,
		StorageDriver: "local",
		LocalDataDir:  t.TempDir(),
	}

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	srv := httptest.NewServer(SetupRoutes(a))
	t.Cleanup(srv.Close)

	return srv, a
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func registerAndLogin(t *testing.T, srv *httptest.Server, username string) (token, userID string) {
	t.Helper()

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "Passw0rd!",
		"password_confirm": "Passw0rd!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	user := body["user"].(map[string]any)
	return body["token"].(string), user["id"].(string)
}

func uploadFile(t *testing.T, srv *httptest.Server, token, filename, comment string, content []byte) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if comment != "" {
		require.NoError(t, writer.WriteField("comment", comment))
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/files", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return decodeBody(t, resp)
}

func promoteToAdmin(t *testing.T, a *app.App, userID string) {
	t.Helper()

	_, err := a.DB.Exec(`UPDATE users SET is_admin = 1 WHERE id = $1`, userID)
	require.NoError(t, err)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterValidationAndConflict(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"username":         "x",
		"email":            "x@example.com",
		"password":         "Passw0rd!",
		"password_confirm": "Passw0rd!",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "VALIDATION_ERROR", body["error"].(map[string]any)["code"])

	registerAndLogin(t, srv, "alice")

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"username":         "alice",
		"email":            "other@example.com",
		"password":         "Passw0rd!",
		"password_confirm": "Passw0rd!",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "CONFLICT", body["error"].(map[string]any)["code"])
}

func TestLoginAndProfile(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv, "alice")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decodeBody(t, resp)["token"].(string)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decodeBody(t, resp)
	assert.Equal(t, "alice", profile["username"])

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestProfileRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/profile", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestFileLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	aliceToken, aliceID := registerAndLogin(t, srv, "alice")
	bobToken, _ := registerAndLogin(t, srv, "bob1")

	content := bytes.Repeat([]byte("z"), 1024)
	uploaded := uploadFile(t, srv, aliceToken, "report.pdf", "quarterly", content)

	fileID := uploaded["id"].(string)
	assert.Equal(t, "report.pdf", uploaded["name"])
	assert.Equal(t, float64(1024), uploaded["size"])
	assert.Equal(t, "quarterly", uploaded["comment"])
	assert.Equal(t, aliceID, uploaded["owner_id"])
	assert.Equal(t, true, uploaded["is_owner"])

	// Listing shows it for the owner only.
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/files", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	resp.Body.Close()
	require.Len(t, listing, 1)
	assert.Equal(t, "alice", listing[0]["owner_username"])

	// Another user gets an indistinguishable 404 on every direct-id route.
	for _, probe := range []struct{ method, path string }{
		{http.MethodGet, "/api/files/" + fileID},
		{http.MethodGet, "/api/files/" + fileID + "/download"},
		{http.MethodDelete, "/api/files/" + fileID},
		{http.MethodPost, "/api/files/" + fileID + "/share"},
	} {
		resp := doJSON(t, probe.method, srv.URL+probe.path, bobToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "%s %s", probe.method, probe.path)
		resp.Body.Close()
	}

	// Rename changes the display name, not the storage key.
	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/files/"+fileID, aliceToken, map[string]string{"name": "renamed.pdf"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	renamed := decodeBody(t, resp)
	assert.Equal(t, "renamed.pdf", renamed["name"])
	assert.Equal(t, uploaded["storage_name"], renamed["storage_name"])

	// Owner download streams the bytes with the display name.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/files/"+fileID+"/download", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+aliceToken)
	dlResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, dlResp.StatusCode)
	assert.Contains(t, dlResp.Header.Get("Content-Disposition"), "renamed.pdf")
	got, err := io.ReadAll(dlResp.Body)
	dlResp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Delete removes record and bytes.
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/files/"+fileID, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/files/"+fileID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestShareLinkFlow(t *testing.T) {
	srv, a := newTestServer(t)
	aliceToken, _ := registerAndLogin(t, srv, "alice")

	uploaded := uploadFile(t, srv, aliceToken, "pub.txt", "", []byte("shared bytes"))
	fileID := uploaded["id"].(string)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/files/"+fileID+"/share", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decodeBody(t, resp)
	token := first["token"].(string)
	assert.Equal(t, "http://cloud.test/api/shared/"+token, first["share_url"])

	// Sharing again returns the same token and expiry.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/files/"+fileID+"/share", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decodeBody(t, resp)
	assert.Equal(t, token, second["token"])
	assert.Equal(t, first["expires_at"], second["expires_at"])

	// Anonymous download by token, no credentials at all.
	anonResp, err := http.Get(srv.URL + "/api/shared/" + token)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, anonResp.StatusCode)
	got, err := io.ReadAll(anonResp.Body)
	anonResp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "shared bytes", string(got))

	// Unknown token is a plain 404.
	anonResp, err = http.Get(srv.URL + "/api/shared/no-such-token")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, anonResp.StatusCode)
	anonResp.Body.Close()

	// Age the link; the token now answers 410, not 404.
	_, err = a.DB.Exec(`UPDATE files SET share_expires_at = $1 WHERE id = $2`, time.Now().Add(-time.Hour), fileID)
	require.NoError(t, err)

	anonResp, err = http.Get(srv.URL + "/api/shared/" + token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusGone, anonResp.StatusCode)
	body := map[string]any{}
	require.NoError(t, json.NewDecoder(anonResp.Body).Decode(&body))
	anonResp.Body.Close()
	assert.Equal(t, "LINK_EXPIRED", body["error"].(map[string]any)["code"])
}

func TestAdminEndpoints(t *testing.T) {
	srv, a := newTestServer(t)
	aliceToken, aliceID := registerAndLogin(t, srv, "alice")
	adminToken, adminID := registerAndLogin(t, srv, "root1")
	promoteToAdmin(t, a, adminID)

	uploadFile(t, srv, aliceToken, "a.txt", "", []byte("12345"))

	// Non-admins are refused outright, not masked.
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/admin/users", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	resp.Body.Close()
	assert.Len(t, users, 2)

	// Storage info for one user.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/admin/users/"+aliceID+"/storage", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	storageInfo := decodeBody(t, resp)
	assert.Equal(t, float64(1), storageInfo["file_count"])
	assert.Equal(t, float64(5), storageInfo["total_bytes"])

	// Admins see all files and can filter by owner.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/files?owner_id="+aliceID, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var filtered []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&filtered))
	resp.Body.Close()
	require.Len(t, filtered, 1)
	assert.Equal(t, aliceID, filtered[0]["owner_id"])
	assert.Equal(t, false, filtered[0]["is_owner"])

	// Toggle admin flips and reports the new state.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/admin/users/"+aliceID+"/toggle-admin", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	toggled := decodeBody(t, resp)
	assert.Equal(t, true, toggled["is_admin"])

	// Self-delete is refused.
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/admin/users/"+adminID, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Deleting another user takes their files with them.
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/admin/users/"+aliceID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/files", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var remaining []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&remaining))
	resp.Body.Close()
	assert.Empty(t, remaining)

}

func TestUploadRequiresFileField(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := registerAndLogin(t, srv, "alice")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/files", token, map[string]string{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
