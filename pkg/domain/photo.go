package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MaxPhotoBytes is the upload size ceiling for one photo.
const MaxPhotoBytes int64 = 10 << 20

// Category tags which part of the house a photo documents.
type Category string

const (
	CategoryExterior        Category = "exterior"
	CategoryHeatingSystem   Category = "heating_system"
	CategoryHotWater        Category = "hot_water"
	CategoryHRVERV          Category = "hrv_erv"
	CategoryRenewables      Category = "renewables"
	CategoryAtticInsulation Category = "attic_insulation"
	CategoryBlowerDoor      Category = "blower_door"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryExterior,
	CategoryHeatingSystem,
	CategoryHotWater,
	CategoryHRVERV,
	CategoryRenewables,
	CategoryAtticInsulation,
	CategoryBlowerDoor,
}

// ParseCategory validates a wire category.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.TrimSpace(raw))
	if c.rank() < 0 {
		return "", fmt.Errorf("unknown photo category %q", raw)
	}
	return c, nil
}

func (c Category) rank() int {
	for i, known := range Categories {
		if known == c {
			return i
		}
	}
	return -1
}

// Title renders the category for display, e.g. "Heating System".
func (c Category) Title() string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Photo is an image attached to an audit. Filename is the stored name within
// the audit's photo prefix.
type Photo struct {
	ID           string    `json:"id"`
	AuditID      string    `json:"auditId"`
	Category     Category  `json:"category"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// SortPhotos orders photos by category, then upload time, then id.
func SortPhotos(photos []Photo) {
	sort.SliceStable(photos, func(i, j int) bool {
		a, b := photos[i], photos[j]
		if ra, rb := a.Category.rank(), b.Category.rank(); ra != rb {
			return ra < rb
		}
		if !a.UploadedAt.Equal(b.UploadedAt) {
			return a.UploadedAt.Before(b.UploadedAt)
		}
		return a.ID < b.ID
	})
}
