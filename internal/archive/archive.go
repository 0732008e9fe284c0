// Package archive reads and writes the single-file trip export: a zip holding
// one trip_data.json. Reading also accepts a bare JSON file of any schema
// generation.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// DataFile is the name of the record inside the zip.
const DataFile = "trip_data.json"

// zipMagic starts every zip local file header.
var zipMagic = []byte("PK\x03\x04")

// Write writes rec as a zip archive to w.
func Write(w io.Writer, rec types.TripRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding trip: %w", err)
	}

	zw := zip.NewWriter(w)
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     DataFile,
		Method:   zip.Deflate,
		Modified: modified(rec),
	})
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	return zw.Close()
}

// IsZip reports whether data looks like a zip archive.
func IsZip(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// Read returns the decoded record inside data, which is either a zip archive
// or a bare JSON object. The record is returned undecoded so that any schema
// generation can go through migration. A JSON null yields a nil map.
//
// Returns ErrArchiveMissingData when a zip has no trip_data.json, and
// ErrArchiveInvalidJSON when the payload is not a JSON object.
func Read(data []byte) (map[string]any, error) {
	payload := data
	if IsZip(data) {
		var err error
		if payload, err = readDataFile(data); err != nil {
			return nil, err
		}
	}

	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrArchiveInvalidJSON, err)
	}
	if v == nil {
		return nil, nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", types.ErrArchiveInvalidJSON)
	}
	return raw, nil
}

func readDataFile(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrArchiveMissingData, err)
	}
	for _, f := range zr.File {
		if f.Name != DataFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", DataFile, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, types.ErrArchiveMissingData
}

// modified is the record's timestamp, or now when it has none.
func modified(rec types.TripRecord) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, rec.Timestamp); err == nil {
		return t
	}
	return time.Now()
}
