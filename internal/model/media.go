package model

import (
	"strconv"
	"strings"
)

// MediaItem is an uploaded attachment as known to the host CMS.
type MediaItem struct {
	ID       string `json:"id"`
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Path     string `json:"path"`
}

// Intrinsic returns the stored pixel dimensions of the item.
func (m MediaItem) Intrinsic() Dimensions {
	return Dimensions{Width: m.Width, Height: m.Height}
}

// servableTypes lists the MIME types the image service can serve.
var servableTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// IsServable reports whether the item's MIME type is handled by the image service.
func (m MediaItem) IsServable() bool {
	return servableTypes[strings.ToLower(m.MIMEType)]
}

// Dimensions is a width/height pair in pixels. A zero value on an axis
// means "unbounded" when used as a target box.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SizeSpec describes the variant requested from the image service.
// Zero Width, Height or Quality means the field is unset.
type SizeSpec struct {
	Width   int  `json:"width,omitempty"`
	Height  int  `json:"height,omitempty"`
	Crop    bool `json:"crop,omitempty"`
	Quality int  `json:"quality,omitempty"`
	Stretch bool `json:"stretch,omitempty"`
}

// Box returns the target box of the spec.
func (s SizeSpec) Box() Dimensions {
	return Dimensions{Width: s.Width, Height: s.Height}
}

// Candidate is a single srcset entry.
type Candidate struct {
	URL   string `json:"url"`
	Width int    `json:"width"`
}

// Srcset is an ordered list of candidates, smallest ratio first.
type Srcset []Candidate

// String renders the srcset attribute value, e.g. "u=w75-nu 75w, u=w150-nu 150w".
func (s Srcset) String() string {
	parts := make([]string, 0, len(s))
	for _, c := range s {
		parts = append(parts, strings.ReplaceAll(c.URL, " ", "%20")+" "+strconv.Itoa(c.Width)+"w")
	}
	return strings.Join(parts, ", ")
}

// Downsize is the answer to a host "give me this image at size X" request.
type Downsize struct {
	URL          string `json:"url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Intermediate bool   `json:"intermediate"`
}
