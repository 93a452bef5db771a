package utils

import (
	"mime"
	"path"
	"strings"
)

const OctetStream = "application/octet-stream"

// builtin types win over the host mime tables so that two machines
// index the same build with the same content types
var knownTypes = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".json": "application/json",
	".wasm": "application/wasm",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".xml":  "text/xml",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".ico":  "image/x-icon",
	".ogg":  "audio/ogg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ttf":  "font/ttf",
	".otf":  "font/otf",
	".woff": "font/woff",
	".zip":  "application/zip",
	".exe":  "application/x-msdownload",
	".dll":  "application/x-msdownload",
	".pdf":  "application/pdf",
}

// DetectContentType infers a MIME type from the file extension only.
// Parameters such as charset are dropped.
func DetectContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return OctetStream
	}
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
	}
	return OctetStream
}
