package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/repository"
)

// MaxFileBytes caps how much of a file is read.
const MaxFileBytes = 4 << 20

// ErrUnsupportedExt is returned for files outside constants.AllowedExtensions.
var ErrUnsupportedExt = errors.New("unsupported or missing extension")

// FSIngestor reads syllabus text files from the local filesystem.
type FSIngestor struct {
	Syllabi repository.SyllabusRepository
	Logger  *slog.Logger
}

var _ Ingestor = (*FSIngestor)(nil)

func NewFSIngestor(s repository.SyllabusRepository, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Syllabi: s, Logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.Logger.Warn("ingest.skip", "path", abs, "ext", ext)
		return out, fmt.Errorf("%w: %q", ErrUnsupportedExt, ext)
	}

	raw, err := readCapped(abs)
	if err != nil {
		i.Logger.Error("ingest.read.failed", "path", abs, "error", err)
		return out, err
	}

	sum := sha256.Sum256(raw)
	text, err := DecodeText(raw)
	if err != nil {
		return out, fmt.Errorf("%s: %w", abs, err)
	}

	row, created, err := i.Syllabi.UpsertByHash(ctx, repository.NewSyllabus{
		SourcePath:    abs,
		Filename:      filepath.Base(abs),
		MimeType:      constants.MimeTypeForExt(ext),
		ContentHash:   sum[:],
		ExtractedText: text,
	})
	if err != nil {
		return out, err
	}

	i.Logger.Info("ingest.ok", "path", abs, "syllabus_id", row.ID, "deduplicated", !created)
	out = IngestionResult{
		SourcePath:   row.SourcePath,
		SyllabusID:   row.ID.String(),
		Deduplicated: !created,
		HashHex:      hex.EncodeToString(sum[:]),
		FileExt:      ext,
		UploadedAt:   row.UploadedAt,
	}
	return out, nil
}

func readCapped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if len(data) > MaxFileBytes {
		return nil, common.NewAppError("FILE_TOO_LARGE", fmt.Sprintf("%s exceeds %d bytes", filepath.Base(path), MaxFileBytes), common.ErrInvalidInput)
	}
	return data, nil
}

// DecodeText honors a UTF-8 or UTF-16 byte order mark and otherwise expects UTF-8.
func DecodeText(raw []byte) (string, error) {
	utf16 := bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) || bytes.HasPrefix(raw, []byte{0xFF, 0xFE})
	if !utf16 && !utf8.Valid(raw) {
		return "", common.NewAppError("INVALID_ENCODING", "file is not valid UTF-8 text", common.ErrInvalidInput)
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return string(out), nil
}
