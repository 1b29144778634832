package httpapi

import (
	"auditcore/internal/adapters/exports"
	"auditcore/internal/core"
	memorystore "auditcore/internal/infra/blob/memory"
	"auditcore/internal/photos"
	"auditcore/internal/session"
	"auditcore/pkg/domain"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSyncExportIgnoresClientCancellation(t *testing.T) {
	obsCore, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(obsCore)

	svc := core.NewInMemoryService(nil)
	ix := photos.NewIndex(svc, memorystore.New())
	gen := exports.NewGenerator(svc, ix, exports.WithLogger(logger))
	routes := New(svc, ix, gen, WithLogger(logger)).Routes()

	ctx := session.WithSession(context.Background(), session.Session{UserID: "u1"})
	a, _, err := svc.CreateAudit(ctx, domain.Audit{})
	require.NoError(t, err)
	data := encodePNG(t)
	_, err = ix.Upload(ctx, a.ID, string(domain.CategoryExterior), photos.File{
		Name:        "front.png",
		ContentType: "image/png",
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})
	require.NoError(t, err)

	gone, cancel := context.WithCancel(context.Background())
	cancel()
	for _, path := range []string{"/export/pdf", "/export/hot2000"} {
		req := httptest.NewRequest(http.MethodGet, "/api/audits/"+a.ID+path, nil).WithContext(gone)
		req.Header.Set(session.HeaderUserID, "u1")
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Body.Bytes(), path)
	}
	assert.Zero(t, logs.FilterMessage("photo could not be embedded in report").Len())
}
