package storage

import "io"

// BlobStore archives opaque payloads. Here it holds the raw generator
// responses kept alongside each exam for audit.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}

// ExamPayloadKey is where an exam's raw generator payload lives.
func ExamPayloadKey(examID string) string {
	return "exams/" + examID + ".json"
}
