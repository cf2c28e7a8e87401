package extractors

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// Office Open XML documents (docx, pptx) are zip archives of XML parts.

func openArchive(data []byte) (*zip.Reader, error) {
	return zip.NewReader(bytes.NewReader(data), int64(len(data)))
}

func readArchiveFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("archive part %s missing", name)
}
