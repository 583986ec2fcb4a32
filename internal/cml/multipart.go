package cml

import (
	"bytes"
	"mime/multipart"
)

// Multipart is a file upload. It is encoded once so that a retried PUT sends
// identical bytes.
type Multipart struct {
	Fields    map[string]string
	FileField string
	FileName  string
	Content   []byte
}

func (m *Multipart) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range m.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if m.FileField != "" {
		fw, err := w.CreateFormFile(m.FileField, m.FileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(m.Content); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
