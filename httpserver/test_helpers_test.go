package httpserver_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"contactbook/pkg/config"

	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
	Info    string          `json:"info"`
}

func testConfig() *config.Config {
	return &config.Config{}
}

func decodeAPIResponse(t testing.TB, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "response should be an API envelope: %s", rec.Body.String())
	return resp
}

func decodeAPIResult(t testing.TB, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v), "result should decode: %s", string(raw))
}
