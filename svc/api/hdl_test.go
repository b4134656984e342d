package api_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pastebox/cfg"
	"pastebox/svc/api"
	"pastebox/svc/cache"
	"pastebox/svc/db"
	"pastebox/svc/svc"
)

var pasteLinkRe = regexp.MustCompile(`/paste/([0-9a-f-]{36})`)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := db.NewStore(filepath.Join(t.TempDir(), "resources.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	lru, err := cache.NewLRU(16)
	require.NoError(t, err)
	c := &cfg.Cfg{
		Port:         "0",
		MaxPasteSize: 10 * 1024 * 1024,
	}
	paste := svc.NewPaste(store, lru, nil, c)
	srv := api.NewServer(c, paste, store, nil)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func multipartBody(t *testing.T, content, filename string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if content != "" {
		require.NoError(t, w.WriteField("content", content))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func createPaste(t *testing.T, ts *httptest.Server, content, filename string, fileData []byte) string {
	t.Helper()
	body, contentType := multipartBody(t, content, filename, fileData)
	resp, err := http.Post(ts.URL+"/paste", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	m := pasteLinkRe.FindSubmatch(page)
	require.NotNil(t, m, "success page should link to the new paste")
	return string(m[1])
}

func TestHomepage(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "<form")
}

func TestCreateAndViewTextPaste(t *testing.T) {
	ts := newTestServer(t)
	id := createPaste(t, ts, "some <b>bold</b> text", "", nil)

	resp, err := http.Get(ts.URL + "/paste/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, _ := io.ReadAll(resp.Body)
	body := string(page)
	assert.Contains(t, body, "text/plain")
	// markup in content is escaped, never rendered
	assert.Contains(t, body, "&lt;b&gt;bold&lt;/b&gt;")
	assert.NotContains(t, body, "<b>bold</b>")
	assert.Contains(t, body, "Views: 1")
}

func TestCreateAndFetchRaw(t *testing.T) {
	ts := newTestServer(t)
	data := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01}
	id := createPaste(t, ts, "", "shot.png", data)

	resp, err := http.Get(ts.URL + "/raw/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	got, _ := io.ReadAll(resp.Body)
	assert.Equal(t, data, got)
}

func TestBinaryPasteRendersDownloadNotice(t *testing.T) {
	ts := newTestServer(t)
	id := createPaste(t, ts, "", "blob.bin", []byte{0x00, 0x01, 0x02})

	resp, err := http.Get(ts.URL + "/paste/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "binary file")
	assert.Contains(t, string(page), "/raw/"+id)
}

func TestFileFieldWinsOverTextarea(t *testing.T) {
	ts := newTestServer(t)
	id := createPaste(t, ts, "from textarea", "notes.txt", []byte("from file"))

	resp, err := http.Get(ts.URL + "/raw/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	got, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "from file", string(got))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}

func TestCreateEmptyContent(t *testing.T) {
	ts := newTestServer(t)
	body, contentType := multipartBody(t, "", "", nil)
	resp, err := http.Post(ts.URL+"/paste", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	msg, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(msg), "Content cannot be empty")
}

func TestViewUnknownPaste(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/paste/doesnotexist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	msg, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(msg), "Paste not found")
}

func TestViewCountAcrossRequests(t *testing.T) {
	ts := newTestServer(t)
	id := createPaste(t, ts, "counted", "", nil)

	for want := 1; want <= 3; want++ {
		resp, err := http.Get(ts.URL + "/paste/" + id)
		require.NoError(t, err)
		page, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Contains(t, string(page), "Views: "+strconv.Itoa(want))
	}
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"ready":true`)
}
