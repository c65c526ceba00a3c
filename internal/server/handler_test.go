package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/img2tg/img2tg/internal/config"
	"github.com/img2tg/img2tg/internal/consts"
	"github.com/img2tg/img2tg/internal/metrics"
	"github.com/img2tg/img2tg/internal/platform"
	"github.com/img2tg/img2tg/internal/session"
	"github.com/img2tg/img2tg/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakePlatform implements platform.API with overridable behaviour and call
// accounting.
type fakePlatform struct {
	mu         sync.Mutex
	docCalls   int
	photoCalls int
	urlCalls   int

	sendDocument func(chatID int64, data []byte, filename, caption string) (platform.Upload, error)
	sendPhoto    func(chatID int64, data []byte, filename string) (platform.Upload, error)
	fileURL      func(fileID string) (string, error)
}

func (f *fakePlatform) SendDocument(ctx context.Context, chatID int64, data []byte, filename, caption string) (platform.Upload, error) {
	f.mu.Lock()
	f.docCalls++
	n := f.docCalls
	f.mu.Unlock()
	if f.sendDocument != nil {
		return f.sendDocument(chatID, data, filename, caption)
	}
	return platform.Upload{MessageID: n, FileID: fmt.Sprintf("doc-%d", n)}, nil
}

func (f *fakePlatform) SendPhoto(ctx context.Context, chatID int64, data []byte, filename string) (platform.Upload, error) {
	f.mu.Lock()
	f.photoCalls++
	n := f.photoCalls
	f.mu.Unlock()
	if f.sendPhoto != nil {
		return f.sendPhoto(chatID, data, filename)
	}
	return platform.Upload{MessageID: 100 + n, FileID: fmt.Sprintf("ph-%d", n)}, nil
}

func (f *fakePlatform) FileURL(ctx context.Context, fileID string) (string, error) {
	f.mu.Lock()
	f.urlCalls++
	f.mu.Unlock()
	if f.fileURL != nil {
		return f.fileURL(fileID)
	}
	return "https://api.telegram.org/file/bottest/photos/" + fileID + ".jpg", nil
}

// fakeGallery records writes and serves canned reads.
type fakeGallery struct {
	appendCalls int
	appended    []storage.GalleryItem
	appendUser  string
	appendChat  string
	appendAt    time.Time
	appendErr   error

	galleries    map[string][]storage.GalleryItem
	galleriesErr error

	placeholder    string
	placeholderErr error
}

func (g *fakeGallery) AppendItems(ctx context.Context, userID, chatID string, items []storage.GalleryItem, at time.Time) error {
	g.appendCalls++
	g.appendUser = userID
	g.appendChat = chatID
	g.appended = append(g.appended, items...)
	g.appendAt = at
	return g.appendErr
}

func (g *fakeGallery) UserGalleries(ctx context.Context, userID, chatID string) (map[string][]storage.GalleryItem, error) {
	if g.galleriesErr != nil {
		return nil, g.galleriesErr
	}
	return g.galleries, nil
}

func (g *fakeGallery) Placeholder(ctx context.Context, userID, chatID, fileID string) (string, error) {
	if g.placeholderErr != nil {
		return "", g.placeholderErr
	}
	return g.placeholder, nil
}

type fakeStore struct {
	gallery *fakeGallery
	closed  bool
}

func (s *fakeStore) Gallery(collection string) GalleryStore { return s.gallery }
func (s *fakeStore) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

type testEnv struct {
	handler  *Handler
	router   *gin.Engine
	platform *fakePlatform
	store    *fakeStore
	sleeps   int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		platform: &fakePlatform{},
		store:    &fakeStore{gallery: &fakeGallery{}},
	}

	sessions := session.New(time.Minute)
	t.Cleanup(sessions.Close)

	env.handler = &Handler{
		cfg: &config.Config{
			MongoDefaultCollection: consts.DefaultCollection,
			MaxPoolSize:            10,
			MinPoolSize:            2,
			SessionTimeout:         time.Minute,
			UploadDelay:            time.Second,
			MaxRetries:             3,
			RetryDelay:             time.Millisecond,
		},
		sessions: sessions,
		metrics:  metrics.NewCollector(),
		platformFor: func(token string) (platform.API, error) {
			return env.platform, nil
		},
		connect: func(ctx context.Context, uri string, maxPoolSize, minPoolSize uint64) (Store, error) {
			return env.store, nil
		},
		now: func() time.Time { return testTime },
		sleep: func(ctx context.Context, d time.Duration) error {
			env.sleeps++
			return nil
		},
	}
	env.router = NewRouter(env.handler)
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type testFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartUpload(t *testing.T, fields map[string]string, files []testFile) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			t.Fatalf("Failed to write field %s: %v", key, err)
		}
	}
	for _, f := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, f.name))
		header.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("Failed to create part: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("Failed to write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}
