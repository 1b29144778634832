package report

import (
	"auditcore/internal/export/render"
	"auditcore/pkg/domain"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

type fakeSource struct {
	binaries map[string][]byte
	opened   []string
}

func (f *fakeSource) OpenBinary(_ context.Context, p domain.Photo) (io.ReadCloser, error) {
	f.opened = append(f.opened, p.ID)
	data, ok := f.binaries[p.ID]
	if !ok {
		return nil, fmt.Errorf("photo %s: %w", p.ID, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func photos(n int, cat domain.Category) []domain.Photo {
	out := make([]domain.Photo, n)
	for i := range out {
		out[i] = domain.Photo{
			ID:           fmt.Sprintf("p-%d", i),
			AuditID:      "a-1",
			Category:     cat,
			OriginalName: fmt.Sprintf("IMG_%d.png", i),
			UploadedAt:   fixedNow.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func newCompiler(src PhotoSource, opts ...Option) *Compiler {
	return NewCompiler(src, append([]Option{WithOptions(Options{Now: fixedNow})}, opts...)...)
}

func TestPhotoPagination(t *testing.T) {
	img := pngBytes(t)
	for _, tc := range []struct {
		photos int
		pages  []int
	}{
		{0, nil},
		{1, []int{1}},
		{2, []int{2}},
		{5, []int{2, 2, 1}},
	} {
		src := &fakeSource{binaries: map[string][]byte{}}
		ps := photos(tc.photos, domain.CategoryExterior)
		for _, p := range ps {
			src.binaries[p.ID] = img
		}
		layout := newCompiler(src).Build(context.Background(), domain.Audit{ID: "a-1"}, ps)
		require.Len(t, layout.PhotoPages, len(tc.pages), "photos=%d", tc.photos)
		for i, page := range layout.PhotoPages {
			assert.Len(t, page.Slots, tc.pages[i])
			assert.Equal(t, fmt.Sprintf("Audit Photos (Page %d of %d)", i+1, len(tc.pages)), page.Header())
			for _, slot := range page.Slots {
				assert.NoError(t, slot.Err)
				assert.NotEmpty(t, slot.Image)
				assert.Equal(t, 40, slot.Width)
			}
		}
	}
}

func TestPhotosFollowCategoryAndUploadOrder(t *testing.T) {
	ps := append(photos(2, domain.CategoryBlowerDoor), photos(1, domain.CategoryExterior)...)
	ps[2].ID = "ext"
	src := &fakeSource{}
	layout := newCompiler(src).Build(context.Background(), domain.Audit{}, ps)
	assert.Equal(t, []string{"ext", "p-0", "p-1"}, src.opened)
	require.Len(t, layout.PhotoPages, 2)
	assert.Equal(t, "Exterior Photo", layout.PhotoPages[0].Slots[0].Title)
	assert.Equal(t, "Blower Door Photo", layout.PhotoPages[0].Slots[1].Title)
}

func TestFailedPhotoKeepsSlotWithPlaceholder(t *testing.T) {
	obsCore, logs := observer.New(zapcore.WarnLevel)
	ps := photos(3, domain.CategoryHotWater)
	src := &fakeSource{binaries: map[string][]byte{
		"p-0": pngBytes(t),
		"p-1": []byte("not an image"),
	}}
	c := newCompiler(src, WithLogger(zap.New(obsCore)))

	var out bytes.Buffer
	layout, err := c.Compile(context.Background(), &out, domain.Audit{ID: "a-1"}, ps)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF-")))

	require.Len(t, layout.PhotoPages, 2)
	slots := append(layout.PhotoPages[0].Slots, layout.PhotoPages[1].Slots...)
	assert.NoError(t, slots[0].Err)
	assert.ErrorContains(t, slots[1].Err, "decode photo")
	assert.ErrorIs(t, slots[2].Err, domain.ErrNotFound)
	assert.Equal(t, "File: IMG_1.png", slots[1].Caption)

	entries := logs.FilterMessage("photo could not be embedded in report").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "p-1", entries[0].ContextMap()["photo_id"])
	assert.Equal(t, "p-2", entries[1].ContextMap()["photo_id"])
}

func TestTransparentPhotoFlattensOntoWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	img.Set(31, 31, color.NRGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	src := &fakeSource{binaries: map[string][]byte{"p-0": buf.Bytes()}}
	layout, err := newCompiler(src).Compile(context.Background(), io.Discard, domain.Audit{ID: "a-1"}, photos(1, domain.CategoryExterior))
	require.NoError(t, err)

	slot := layout.PhotoPages[0].Slots[0]
	require.NoError(t, slot.Err)
	out, err := jpeg.Decode(bytes.NewReader(slot.Image))
	require.NoError(t, err)
	r, g, b, _ := out.At(0, 0).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestChecklistsAreComplete(t *testing.T) {
	a := domain.Audit{ID: "a-1"}
	a.FoundationInfo = &domain.FoundationInfo{FoundationType: []string{"basement"}}
	layout := newCompiler(nil).Build(context.Background(), a, nil)

	counts := map[string]int{}
	for _, b := range layout.Blocks {
		for _, c := range b.Checklists {
			counts[c.Title] = len(c.Items)
			if c.Title == "Foundation Type" {
				assert.Equal(t, []bool{true, false, false}, []bool{c.Items[0].Checked, c.Items[1].Checked, c.Items[2].Checked})
			}
		}
	}
	require.Len(t, counts, len(render.Checklists))
	for _, c := range render.Checklists {
		assert.Equal(t, len(c.Options), counts[c.Title], c.Title)
	}
}

func TestBlocksFollowSharedOrderAndDefault(t *testing.T) {
	layout := newCompiler(nil).Build(context.Background(), domain.Audit{ID: "a-1"}, nil)
	var ids []render.SectionID
	for _, b := range layout.Blocks {
		ids = append(ids, b.ID)
		for _, f := range b.Fields {
			assert.NotEmpty(t, f.Value, "%s/%s", b.Title, f.Label)
		}
	}
	var want []render.SectionID
	for _, s := range render.Order {
		if _, ok := sectionFields[s.ID]; ok {
			want = append(want, s.ID)
		}
	}
	assert.Equal(t, want, ids)

	for _, box := range layout.Cover.Boxes {
		for _, f := range box.Fields {
			assert.NotEmpty(t, f.Value)
		}
	}
	assert.Equal(t, "Residential Energy Assessment", layout.Cover.AuditLabel)
	assert.Equal(t, "ENERVA", layout.Cover.Company)
}

func TestCoverLabels(t *testing.T) {
	a := domain.Audit{ID: "a-1", Details: domain.Details{
		CustomerFirstName: "Grace",
		AuditType:         domain.AuditAfterUpgrade,
		HomeType:          domain.HomeRowMid,
	}}
	layout := newCompiler(nil).Build(context.Background(), a, nil)
	assert.Equal(t, "Post-Retrofit Verification", layout.Cover.AuditLabel)
	details := layout.Cover.Boxes[3]
	assert.Equal(t, Field{"Home Type", "Row Mid Unit"}, details.Fields[1])
	customer := layout.Cover.Boxes[1]
	assert.Equal(t, Field{"First Name", "Grace"}, customer.Fields[0])
	assert.Equal(t, Field{"Last Name", render.NotSpecified}, customer.Fields[1])
	assert.Equal(t, Field{"Report Date", "2025-06-02"}, layout.Cover.Boxes[0].Fields[1])
}

func TestFilename(t *testing.T) {
	a := domain.Audit{ID: "a-1"}
	assert.Equal(t, "ENERVA_Audit_Report_a-1_2025-06-02.pdf", newCompiler(nil).Filename(a))
	assert.Equal(t, "Custom_a-1_2025-06-02.pdf", Filename("Custom", a, fixedNow))
}

func TestCompileCancelledContextDegradesPhotos(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{binaries: map[string][]byte{"p-0": pngBytes(t)}}
	var out bytes.Buffer
	layout, err := newCompiler(src).Compile(ctx, &out, domain.Audit{ID: "a-1"}, photos(1, domain.CategoryExterior))
	require.NoError(t, err)
	require.True(t, errors.Is(layout.PhotoPages[0].Slots[0].Err, context.Canceled))
	assert.Empty(t, src.opened)
}
