package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"campus-events/internal/handler"

	"github.com/gin-gonic/gin"
)

var (
	InvalidJSON = `{"invalid": json}`
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// create JSON request body
func createJSONRequest(data interface{}) *bytes.Buffer {
	if raw, ok := data.(string); ok {
		return bytes.NewBufferString(raw)
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return bytes.NewBuffer([]byte(""))
	}
	return bytes.NewBuffer(jsonData)
}

// create HTTP request with JSON body，actor 為 0 時不帶身分
func createJSONHTTPRequest(method, url string, data interface{}, actor int) *http.Request {
	req, err := http.NewRequest(method, url, createJSONRequest(data))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	if actor > 0 {
		req.Header.Set(handler.ActorHeader, strconv.Itoa(actor))
	}
	return req
}

func decodeBody(body *bytes.Buffer) map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(body.Bytes(), &out)
	return out
}
