package internal

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"regexp"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,127}$`)

// TableName is a validated table identifier. It is safe to use as a file name
// and inside a quoted SQL identifier.
type TableName string

func NewTableName(s string) (TableName, error) {
	if s == "" || !tableNamePattern.MatchString(s) {
		return "", ErrInvalidTableName
	}
	return TableName(s), nil
}

func (n TableName) String() string {
	return string(n)
}

// Document is a single stored row.
type Document struct {
	ID     string
	Name   string
	Text   string
	Vector []float32
}

// NewDocument builds a document whose ID is derived from text and name.
func NewDocument(text, name string, vec []float32) Document {
	return Document{
		ID:     DeriveID(text, name),
		Name:   name,
		Text:   text,
		Vector: vec,
	}
}

// DeriveID returns the hex SHA-256 of the length-prefixed text and name.
// Each field is preceded by its byte length as a big-endian uint64, so
// ("ab", "c") and ("a", "bc") never share an id.
func DeriveID(text, name string) string {
	h := sha256.New()
	var n [8]byte
	for _, field := range [2]string{text, name} {
		binary.BigEndian.PutUint64(n[:], uint64(len(field)))
		h.Write(n[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}
