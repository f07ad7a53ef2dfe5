// Package images prepares uploaded images for storage: type and size
// checks, downscaling, re-encoding, naming and BlurHash placeholders.
package images

import "slices"

// Logical buckets.
const (
	BucketWorks        = "obras-imagenes"
	BucketInspirations = "inspiraciones-imagenes"
)

// MiB is one mebibyte.
const MiB = 1 << 20

// Profile sets the limits and output settings of a bucket.
type Profile struct {
	MaxSize      int64
	AllowedTypes []string
	MaxWidth     int
	Quality      int
	Ext          string // extension of compressed output
	DefaultTitle string // name stem used when the title is empty
}

// DefaultProfile applies to buckets without their own profile.
func DefaultProfile() Profile {
	return Profile{
		MaxSize:      5 * MiB,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
		MaxWidth:     1200,
		Quality:      80,
		Ext:          "jpg",
		DefaultTitle: "imagen",
	}
}

// ProfileFor returns the profile of bucket.
func ProfileFor(bucket string) Profile {
	p := DefaultProfile()
	switch bucket {
	case BucketWorks:
		p.MaxWidth = 1500
		p.Quality = 90
		p.DefaultTitle = "obra"
	case BucketInspirations:
		p.MaxWidth = 1000
		p.DefaultTitle = "inspiracion"
	}
	return p
}

// Allows reports whether contentType is on the profile's allow-list.
func (p Profile) Allows(contentType string) bool {
	return slices.Contains(p.AllowedTypes, contentType)
}
