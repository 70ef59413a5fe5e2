package utils

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
)

// ImageToDataURI encodes raw image bytes into a data URI the vision
// chat endpoint accepts. The format is derived from the filename
// extension, defaulting to png.
func ImageToDataURI(data []byte, filename string) string {
	format := strings.TrimPrefix(filepath.Ext(filename), ".")
	if format == "" {
		format = "png"
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("data:image/%s;base64,%s", format, encoded)
}
