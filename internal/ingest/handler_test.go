package ingest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gestureconnect/signd/internal/keypoint"
	"github.com/gestureconnect/signd/internal/recognizer"
)

type fakeIngester struct {
	vectors []keypoint.Vector
	frames  [][]byte
	dims    int
}

func (f *fakeIngester) Ingest(_ string, vec keypoint.Vector) (int, error) {
	if vec.Dimensions() != f.dims {
		return len(f.vectors), fmt.Errorf("%w: got %d, want %d", recognizer.ErrDimensionMismatch, vec.Dimensions(), f.dims)
	}
	f.vectors = append(f.vectors, vec)
	return len(f.vectors), nil
}

func (f *fakeIngester) IngestFrame(_ string, image []byte) error {
	f.frames = append(f.frames, image)
	return nil
}

func newTestHandler(t *testing.T, dims int) (http.Handler, *fakeIngester) {
	t.Helper()
	reg := &fakeIngester{dims: dims}
	h, err := NewHandler(&Config{RequestTimeout: time.Second, MaxDataItemsLen: 4}, reg)
	if err != nil {
		t.Fatalf("calling NewHandler, got: %v, expected: nil", err)
	}
	return h, reg
}

func doRequest(h http.Handler, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ingest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandlerIngestVectors(t *testing.T) {
	h, reg := newTestHandler(t, 2)

	w := doRequest(h, "POST", `{"session":"s1","data":[{"vector":[1,2]},{"vector":[3,4]}]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status got: %v, expected: %v, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if len(reg.vectors) != 2 {
		t.Errorf("ingested vectors got: %v, expected: 2", len(reg.vectors))
	}
	if !strings.Contains(w.Body.String(), `"buffer_length":2`) {
		t.Errorf("response body got: %s, expected buffer_length 2", w.Body.String())
	}
}

func TestHandlerIngestFrame(t *testing.T) {
	h, reg := newTestHandler(t, 2)

	// "AQID" is base64 for 0x01 0x02 0x03.
	w := doRequest(h, "POST", `{"session":"s1","data":[{"frame":"AQID"}]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status got: %v, expected: %v, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if len(reg.frames) != 1 {
		t.Fatalf("queued frames got: %v, expected: 1", len(reg.frames))
	}
	if !strings.Contains(w.Body.String(), `"queued":1`) {
		t.Errorf("response body got: %s, expected queued 1", w.Body.String())
	}
}

func TestHandlerValidation(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		body         string
		expectedCode int
	}{
		{
			name:         "method_not_allowed",
			method:       "GET",
			body:         `{}`,
			expectedCode: http.StatusMethodNotAllowed,
		},
		{
			name:         "missing_session",
			method:       "POST",
			body:         `{"data":[{"vector":[1,2]}]}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "too_many_items",
			method:       "POST",
			body:         `{"session":"s1","data":[{"vector":[1,2]},{"vector":[1,2]},{"vector":[1,2]},{"vector":[1,2]},{"vector":[1,2]}]}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "dimension_mismatch",
			method:       "POST",
			body:         `{"session":"s1","data":[{"vector":[1,2,3]}]}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "empty_item",
			method:       "POST",
			body:         `{"session":"s1","data":[{}]}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "bad_base64",
			method:       "POST",
			body:         `{"session":"s1","data":[{"frame":"!!!"}]}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "malformed_json",
			method:       "POST",
			body:         `{"session":`,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h, _ := newTestHandler(t, 2)
			w := doRequest(h, test.method, test.body)
			if w.Code != test.expectedCode {
				t.Errorf("status got: %v, expected: %v, body: %s", w.Code, test.expectedCode, w.Body.String())
			}
		})
	}
}

func TestHandlerContentType(t *testing.T) {
	h, _ := newTestHandler(t, 2)
	req := httptest.NewRequest("POST", "/ingest", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status got: %v, expected: %v", w.Code, http.StatusUnsupportedMediaType)
	}
}
