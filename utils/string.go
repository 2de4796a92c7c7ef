package utils

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"
	"strings"
)

// compressedPrefix is the base64 form of the gzip magic bytes and
// compression method (1f 8b 08)
const compressedPrefix = "H4sI"

// CompressBytes gzips data at BestCompression and base64 encodes the result
// so it can sit inside a JSON string value
func CompressBytes(data []byte) (string, error) {
	var buf bytes.Buffer
	gzipWriter, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := gzipWriter.Write(data); err != nil {
		return "", err
	}
	if err := gzipWriter.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecompressBytes reverses CompressBytes
func DecompressBytes(input string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return nil, err
	}
	gzipReader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gzipReader.Close()
	return io.ReadAll(gzipReader)
}

// CompressString is CompressBytes for text
func CompressString(input string) (string, error) {
	return CompressBytes([]byte(input))
}

// DecompressString reverses CompressString
func DecompressString(input string) (string, error) {
	data, err := DecompressBytes(input)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// IsCompressed reports whether value looks like CompressBytes output. JSON
// documents never start with the prefix, so stored values written with and
// without compression can be told apart.
func IsCompressed(value string) bool {
	return strings.HasPrefix(value, compressedPrefix)
}
