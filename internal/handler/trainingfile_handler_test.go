package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelforge/modelforge/internal/auth"
)

const validDataset = `{"messages": [{"role": "system", "content": "You are helpful."}, {"role": "user", "content": "Hi"}, {"role": "assistant", "content": "Hello"}]}
{"messages": [{"role": "user", "content": "Ping"}, {"role": "assistant", "content": "Pong"}]}
`

// uploadFile posts a multipart jsonl_file to /api/training_file.
func uploadFile(t *testing.T, e *env, keyUUID, bearer, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("jsonl_file", "training.jsonl")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/training_file?api_key_uuid="+keyUUID, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bearer)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestTrainingFileUploadAndDownload(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")
	token := e.freshToken(uuid)
	keyUUID := createKey(t, e, token, "")

	rec := uploadFile(t, e, keyUUID, token, validDataset)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Training file uploaded.", decodeBody(t, rec)["message"])

	rec = e.do(http.MethodGet, "/api/training_file?api_key_uuid="+keyUUID, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/jsonl", rec.Header().Get("Content-Type"))
	assert.Equal(t, validDataset, rec.Body.String())
}

func TestTrainingFileUploadRejectsBadDataset(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")
	token := e.freshToken(uuid)
	keyUUID := createKey(t, e, token, "")

	// No assistant turn in the example.
	bad := `{"messages": [{"role": "user", "content": "Hi"}]}` + "\n"
	rec := uploadFile(t, e, keyUUID, token, bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	message := decodeBody(t, rec)["message"].(string)
	assert.True(t, strings.HasPrefix(message, "Training file is incorrect."))
	assert.Contains(t, message, "example_missing_assistant_message")

	// Nothing was uploaded to the provider.
	assert.Empty(t, e.files.files)
}

func TestTrainingFileUploadRejectsNonJSON(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")
	token := e.freshToken(uuid)
	keyUUID := createKey(t, e, token, "")

	rec := uploadFile(t, e, keyUUID, token, "not json at all")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "incorrect training file data")
}

func TestTrainingFileUploadMissingFormFile(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")
	token := e.freshToken(uuid)
	keyUUID := createKey(t, e, token, "")

	rec := e.do(http.MethodPost, "/api/training_file?api_key_uuid="+keyUUID, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing file: jsonl_file", decodeBody(t, rec)["message"])
}

func TestTrainingFileUploadProviderDown(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")
	token := e.freshToken(uuid)
	keyUUID := createKey(t, e, token, "")
	e.files.fail = true

	rec := uploadFile(t, e, keyUUID, token, validDataset)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Unable to save training file.", decodeBody(t, rec)["message"])
}

func TestTrainingFileDownloadBeforeUpload(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")
	token := e.freshToken(uuid)
	keyUUID := createKey(t, e, token, "")

	rec := e.do(http.MethodGet, "/api/training_file?api_key_uuid="+keyUUID, token)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "The training file has not been uploaded yet.",
		decodeBody(t, rec)["message"])
}

func TestTrainingFileDelete(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")
	token := e.freshToken(uuid)
	keyUUID := createKey(t, e, token, "")

	require.Equal(t, http.StatusOK, uploadFile(t, e, keyUUID, token, validDataset).Code)

	rec := e.do(http.MethodDelete, "/api/training_file?api_key_uuid="+keyUUID, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Training file deleted successfully.", decodeBody(t, rec)["message"])
	assert.Empty(t, e.files.files)

	// The handle is gone from the bookkeeping row too.
	rec = e.do(http.MethodGet, "/api/training_file?api_key_uuid="+keyUUID, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrainingFileUnknownAPIKey(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")

	unknown := "123e4567-e89b-42d3-a456-426614174000"
	rec := e.do(http.MethodGet, "/api/training_file?api_key_uuid="+unknown, e.freshToken(uuid))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Api key with uuid: "+unknown+" wasn't found.", decodeBody(t, rec)["message"])
}

func TestFineTuningStatus(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)
	uuid := e.seedUser("alice@example.com", "Abcdef1@")
	token := e.freshToken(uuid)
	keyUUID := createKey(t, e, token, "")

	rec := e.do(http.MethodGet, "/api/fine_tuning?api_key_uuid="+keyUUID, token)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["uuid"])
	assert.Nil(t, body["training_file_uuid"])
	assert.Nil(t, body["job_uuid"])
	assert.Equal(t, false, body["tuned"])
	assert.Nil(t, body["last_file_upload"])
	assert.Nil(t, body["last_tuned"])

	require.Equal(t, http.StatusOK, uploadFile(t, e, keyUUID, token, validDataset).Code)

	rec = e.do(http.MethodGet, "/api/fine_tuning?api_key_uuid="+keyUUID, token)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.NotEmpty(t, body["training_file_uuid"])
	assert.NotEmpty(t, body["last_file_upload"])
	assert.Equal(t, false, body["tuned"])
}

func TestFineTuningRequiresAuth(t *testing.T) {
	e := newEnv(t, auth.TransportHeader)

	rec := e.do(http.MethodGet, "/api/fine_tuning?api_key_uuid=x", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
