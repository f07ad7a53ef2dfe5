package images

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File is an uploaded image held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// IsGIF reports whether the file is a GIF.
func (f File) IsGIF() bool {
	return f.ContentType == "image/gif"
}

// NewFile builds a File, sniffing the content type from data. A declared
// type is ignored when it disagrees with the bytes.
func NewFile(name string, data []byte) File {
	return File{Name: name, ContentType: DetectContentType(data), Data: data}
}

// DetectContentType returns the MIME type of data without parameters.
func DetectContentType(data []byte) string {
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return mt
}
