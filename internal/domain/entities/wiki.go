package entities

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WikiEntry is one species in the read-only plant catalog.
type WikiEntry struct {
	Id             uuid.UUID `json:"id" yaml:"-"`
	Name           string    `json:"name" yaml:"name"`
	ScientificName string    `json:"scientificName" yaml:"scientificName"`
	Family         string    `json:"family" yaml:"family"`
	Description    string    `json:"description" yaml:"description"`
	ImageURL       string    `json:"imageUrl" yaml:"imageUrl"`
	CareLevel      string    `json:"careLevel" yaml:"careLevel"` // low | medium | high
	Light          []string  `json:"light" yaml:"light"`         // full-sun | partial-shade | low-light
	PlantType      string    `json:"plantType" yaml:"plantType"` // flowering | foliage | succulent | ...
	Location       string    `json:"location" yaml:"location"`   // indoor | outdoor | both
	Size           string    `json:"size" yaml:"size"`           // small | medium | large
	Watering       string    `json:"watering" yaml:"watering"`
	Temperature    string    `json:"temperature" yaml:"temperature"`
	Humidity       string    `json:"humidity" yaml:"humidity"`
	Toxicity       string    `json:"toxicity" yaml:"toxicity"`
	CreatedAt      time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt      time.Time `json:"updatedAt" yaml:"-"`
}

func (w *WikiEntry) Normalize() {
	w.Name = strings.TrimSpace(w.Name)
	w.ScientificName = strings.TrimSpace(w.ScientificName)
	w.CareLevel = strings.ToLower(strings.TrimSpace(w.CareLevel))
	w.PlantType = strings.ToLower(strings.TrimSpace(w.PlantType))
	w.Location = strings.ToLower(strings.TrimSpace(w.Location))
	w.Size = strings.ToLower(strings.TrimSpace(w.Size))
	for i, l := range w.Light {
		w.Light[i] = strings.ToLower(strings.TrimSpace(l))
	}
}

func (w *WikiEntry) Validate() error {
	if w.Name == "" {
		return errors.New("wiki entry name must not be empty")
	}
	if w.ScientificName == "" {
		return errors.New("wiki entry scientificName must not be empty")
	}
	return nil
}

// WikiFilter selects catalog entries. Empty fields, "any" and "both" match everything.
type WikiFilter struct {
	Keyword   string
	CareLevel string
	Light     string
	PlantType string
	Location  string
	Size      string
}

func (f WikiFilter) Normalize() WikiFilter {
	norm := func(v string) string {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "any" {
			return ""
		}
		return v
	}
	f.Keyword = strings.TrimSpace(f.Keyword)
	f.CareLevel = norm(f.CareLevel)
	f.Light = norm(f.Light)
	f.PlantType = norm(f.PlantType)
	f.Location = norm(f.Location)
	if f.Location == "both" {
		f.Location = ""
	}
	f.Size = norm(f.Size)
	return f
}

// Matches applies the filter in memory; repositories use it after the SQL prefilter.
func (f WikiFilter) Matches(w *WikiEntry) bool {
	f = f.Normalize()
	if f.Keyword != "" {
		k := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(w.Name), k) &&
			!strings.Contains(strings.ToLower(w.ScientificName), k) &&
			!strings.Contains(strings.ToLower(w.Family), k) {
			return false
		}
	}
	if f.CareLevel != "" && !strings.EqualFold(w.CareLevel, f.CareLevel) {
		return false
	}
	if f.Light != "" && !containsFold(w.Light, f.Light) {
		return false
	}
	if f.PlantType != "" && !strings.EqualFold(w.PlantType, f.PlantType) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(w.Location, f.Location) && !strings.EqualFold(w.Location, "both") {
		return false
	}
	if f.Size != "" && !strings.EqualFold(w.Size, f.Size) {
		return false
	}
	return true
}

func containsFold(list []string, val string) bool {
	for _, x := range list {
		if strings.EqualFold(strings.TrimSpace(x), val) {
			return true
		}
	}
	return false
}
