package subliminal

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"path/filepath"
	"strings"

	"github.com/nwaples/rardecode/v2"
	"golang.org/x/net/html/charset"

	"github.com/baoueb/subserver/internal/apperrors"
)

// subtitleExtensions lists the file extensions treated as subtitle text
// when picking a member out of an archive.
var subtitleExtensions = map[string]bool{
	".srt": true,
	".ass": true,
	".ssa": true,
	".vtt": true,
	".sub": true,
}

// NormalizeContent turns the raw bytes a provider fetched into UTF-8
// subtitle text. Archives (zip, rar, gzip) are unpacked to their first
// subtitle member, then the text is converted from whatever charset it was
// uploaded in, replacing any byte sequences that survive as invalid UTF-8.
func NormalizeContent(data []byte) ([]byte, error) {
	unpacked, err := unpackArchive(data)
	if err != nil {
		return nil, err
	}
	return toUTF8(unpacked), nil
}

func unpackArchive(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return extractFromZip(data)
	case bytes.HasPrefix(data, []byte("Rar!\x1a")):
		return extractFromRar(data)
	case bytes.HasPrefix(data, []byte{0x1f, 0x8b}):
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	default:
		return data, nil
	}
}

func extractFromZip(data []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !isSubtitleFile(file.Name) {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		return content, nil
	}

	return nil, &apperrors.ErrNoSubtitleInArchive{FileCount: len(reader.File)}
}

func extractFromRar(data []byte) ([]byte, error) {
	reader, err := rardecode.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	count := 0
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		count++
		if header.IsDir || !isSubtitleFile(header.Name) {
			continue
		}
		return io.ReadAll(reader)
	}

	return nil, &apperrors.ErrNoSubtitleInArchive{FileCount: count}
}

func isSubtitleFile(name string) bool {
	return subtitleExtensions[strings.ToLower(filepath.Ext(name))]
}

// toUTF8 converts subtitle bytes to UTF-8. The charset is sniffed from the
// content itself (BOM, meta declarations, heuristics); anything that still
// decodes to invalid sequences is replaced with U+FFFD rather than dropped.
func toUTF8(data []byte) []byte {
	reader, err := charset.NewReader(bytes.NewReader(data), "text/plain")
	if err == nil {
		if converted, err := io.ReadAll(reader); err == nil {
			data = converted
		}
	}
	return []byte(strings.ToValidUTF8(string(data), "�"))
}
