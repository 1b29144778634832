package httpapi

import (
	"auditcore/internal/adapters/exports"
	"auditcore/internal/core"
	memorystore "auditcore/internal/infra/blob/memory"
	"auditcore/internal/photos"
	"auditcore/internal/platform/metrics"
	"auditcore/internal/session"
	"auditcore/pkg/domain"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	svc    *core.Service
	worker *exports.Worker
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	m := metrics.New()
	svc := core.NewInMemoryService(nil, core.WithMetricsRecorder(m))
	blobs := memorystore.New()
	ix := photos.NewIndex(svc, blobs, photos.WithRecorder(m))
	gen := exports.NewGenerator(svc, ix, exports.WithRecorder(m))
	worker := exports.NewWorker(gen, blobs)
	worker.Start()
	srv := httptest.NewServer(New(svc, ix, gen, WithMetrics(m), WithJobs(worker)).Routes())
	t.Cleanup(func() {
		srv.Close()
		_ = worker.Stop(context.Background())
	})
	return &testAPI{t: t, server: srv, svc: svc, worker: worker}
}

func (a *testAPI) do(method, path, user string, body io.Reader, contentType string) *http.Response {
	a.t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, body)
	require.NoError(a.t, err)
	if user != "" {
		req.Header.Set(session.HeaderUserID, user)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (a *testAPI) json(method, path, user string, payload any) *http.Response {
	a.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(a.t, err)
		body = bytes.NewReader(raw)
	}
	return a.do(method, path, user, body, "application/json")
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (a *testAPI) createAudit(user string, details map[string]any) domain.Audit {
	a.t.Helper()
	resp := a.json(http.MethodPost, "/api/audits", user, details)
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	return decode[domain.Audit](a.t, resp)
}

type part struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, category string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if category != "" {
		require.NoError(t, mw.WriteField("category", category))
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="photo"; filename="`+p.name+`"`)
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	body := decode[map[string]string](t, resp)
	return body["error"]
}

func TestHealthAndAuthentication(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(http.MethodGet, "/api/audits", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "authentication required", errorMessage(t, resp))
}

func TestAuditLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	a := api.createAudit("u1", map[string]any{"customerFirstName": "Ada", "customerLastName": "Lovelace", "customerCity": "Ottawa"})
	assert.Equal(t, domain.StatusDraft, a.Status)
	assert.Equal(t, "u1", a.UserID)

	resp := api.json(http.MethodPut, "/api/audits/"+a.ID, "u1", map[string]any{
		"windowsInfo": map[string]any{"glazing": "double"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decode[domain.Audit](t, resp)
	assert.Equal(t, domain.StatusInProgress, saved.Status)

	resp = api.json(http.MethodPost, "/api/audits/"+a.ID+"/complete", "u1", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, errorMessage(t, resp), "depressurization")

	resp = api.json(http.MethodPut, "/api/audits/"+a.ID, "u1", map[string]any{
		"depressurizationTest": map[string]any{"windowLeakage": "yes"},
		"status":               "completed",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.StatusCompleted, decode[domain.Audit](t, resp).Status)

	resp = api.json(http.MethodPut, "/api/audits/"+a.ID, "u1", map[string]any{
		"doorsInfo": map[string]any{"skin": "steel"},
		"status":    "in_progress",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.StatusCompleted, decode[domain.Audit](t, resp).Status)

	resp = api.json(http.MethodGet, "/api/audits?q=love&status=completed", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]domain.Audit](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	resp = api.json(http.MethodDelete, "/api/audits/"+a.ID, "u1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = api.json(http.MethodGet, "/api/audits/"+a.ID, "u1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuditsAreOwnerScoped(t *testing.T) {
	api := newTestAPI(t)
	a := api.createAudit("u1", map[string]any{})
	resp := api.json(http.MethodGet, "/api/audits/"+a.ID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = api.json(http.MethodGet, "/api/audits", "u2", nil)
	assert.Empty(t, decode[[]domain.Audit](t, resp))
}

func TestInvalidInputIsBadRequest(t *testing.T) {
	api := newTestAPI(t)
	a := api.createAudit("u1", map[string]any{})

	resp := api.do(http.MethodPut, "/api/audits/"+a.ID, "u1", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.json(http.MethodPut, "/api/audits/"+a.ID, "u1", map[string]any{"customerFirstName": map[string]any{"x": 1}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.json(http.MethodPut, "/api/audits/"+a.ID, "u1", map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.json(http.MethodGet, "/api/audits?status=archived", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRejectsMalformedSection(t *testing.T) {
	api := newTestAPI(t)

	for _, body := range []string{
		`{"customerLastName":"Roy","foundationInfo":"oops"}`,
		`{"customerLastName":"Roy","wallsInfo":{"floors":5}}`,
	} {
		resp := api.do(http.MethodPost, "/api/audits", "u1", strings.NewReader(body), "application/json")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		msg := decode[map[string]string](t, resp)
		assert.Contains(t, msg["error"], "invalid section")
	}

	resp := api.do(http.MethodPost, "/api/audits", "u1", strings.NewReader("["), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	list, err := api.svc.ListAudits(session.WithSession(context.Background(), session.Session{UserID: "u1"}))
	require.NoError(t, err)
	assert.Empty(t, list, "rejected bodies must not create audits")

	a := api.createAudit("u1", map[string]any{"doorsInfo": map[string]any{"skin": "steel"}})
	assert.Equal(t, "steel", string(a.Doors().Skin))
}

func TestFloorRoutes(t *testing.T) {
	api := newTestAPI(t)
	a := api.createAudit("u1", map[string]any{})

	resp := api.json(http.MethodPost, "/api/audits/"+a.ID+"/floors", "u1", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	added := decode[struct {
		Floor domain.Floor `json:"floor"`
	}](t, resp)
	assert.Equal(t, "Second Floor", added.Floor.Name)

	resp = api.json(http.MethodDelete, "/api/audits/"+a.ID+"/floors/"+added.Floor.ID, "u1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.json(http.MethodDelete, "/api/audits/"+a.ID+"/floors/"+domain.FloorMain, "u1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPhotoRoutes(t *testing.T) {
	api := newTestAPI(t)
	a := api.createAudit("u1", map[string]any{})
	base := "/api/audits/" + a.ID + "/photos"

	body, ct := multipartBody(t, "exterior", part{name: "front.png", contentType: "image/png", data: pngBytes})
	resp := api.do(http.MethodPost, base, "u1", body, ct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	photo := decode[domain.Photo](t, resp)
	assert.Equal(t, domain.CategoryExterior, photo.Category)

	body, ct = multipartBody(t, "exterior", part{name: "notes.txt", contentType: "text/plain", data: []byte("hello")})
	resp = api.do(http.MethodPost, base, "u1", body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	body, ct = multipartBody(t, "furnace", part{name: "a.png", contentType: "image/png", data: pngBytes})
	resp = api.do(http.MethodPost, base, "u1", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, ct = multipartBody(t, "exterior")
	resp = api.do(http.MethodPost, base, "u1", body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, ct = multipartBody(t, "heating_system",
		part{name: "furnace.png", contentType: "image/png", data: pngBytes},
		part{name: "manual.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4")},
	)
	resp = api.do(http.MethodPost, base, "u1", body, ct)
	require.Equal(t, http.StatusMultiStatus, resp.StatusCode)
	batch := decode[struct {
		Results []uploadOutcome `json:"results"`
	}](t, resp)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, http.StatusCreated, batch.Results[0].Status)
	assert.NotNil(t, batch.Results[0].Photo)
	assert.Equal(t, http.StatusUnsupportedMediaType, batch.Results[1].Status)

	resp = api.json(http.MethodGet, base+"?category=exterior", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Photo](t, resp), 1)

	resp = api.do(http.MethodGet, "/api/photos/"+photo.ID, "u1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	resp = api.do(http.MethodGet, "/api/photos/"+photo.ID, "u2", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.json(http.MethodDelete, "/api/photos/"+photo.ID, "u1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = api.do(http.MethodGet, "/api/photos/"+photo.ID, "u1", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSynchronousExports(t *testing.T) {
	api := newTestAPI(t)
	a := api.createAudit("u1", map[string]any{"customerLastName": "Lovelace"})

	resp := api.do(http.MethodGet, "/api/audits/"+a.ID+"/export/hot2000", "u1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Lovelace_"+a.ID+".h2k")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "[END_OF_FILE]\n"))

	resp = api.do(http.MethodGet, "/api/audits/"+a.ID+"/export/pdf", "u1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, exports.ContentTypePDF, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ENERVA_Audit_Report_"+a.ID+"_")

	resp = api.do(http.MethodGet, "/api/audits/"+a.ID+"/export/pdf", "u2", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.do(http.MethodGet, "/api/reports/roster.xlsx", "u1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, exports.ContentTypeXLSX, resp.Header.Get("Content-Type"))
}

func TestAsynchronousExport(t *testing.T) {
	api := newTestAPI(t)
	a := api.createAudit("u1", map[string]any{})

	resp := api.json(http.MethodPost, "/api/audits/"+a.ID+"/exports", "u1", map[string]string{"format": "docx"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.json(http.MethodPost, "/api/audits/"+a.ID+"/exports", "u1", map[string]string{"format": "h2k"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	queued := decode[struct {
		Export exports.Job `json:"export"`
	}](t, resp).Export

	require.Eventually(t, func() bool {
		job, err := api.worker.Get(context.Background(), queued.ID)
		return err == nil && job.Status == exports.JobSucceeded
	}, 5*time.Second, 5*time.Millisecond)

	resp = api.json(http.MethodGet, "/api/exports/"+queued.ID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.do(http.MethodGet, "/api/exports/"+queued.ID+"/download", "u1", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".h2k")
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.createAudit("u1", map[string]any{})
	resp := api.do(http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `auditcore_http_request_duration_seconds_count{code="201",method="POST",route="/api/audits"}`)
	assert.Contains(t, string(data), `auditcore_operation_duration_seconds_count{operation="create_audit",result="success"}`)
}
