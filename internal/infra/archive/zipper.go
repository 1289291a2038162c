package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"
)

const DefaultCompressionLevel = 6

// ZipBuilder packs a directory tree into a single deflate-compressed zip file.
type ZipBuilder struct {
	tempDir string
	level   int
	logger  *zap.Logger
}

// NewZipBuilder writes archives under tempDir (os.TempDir() when empty) with the
// given deflate level (1-9).
func NewZipBuilder(tempDir string, level int, logger *zap.Logger) *ZipBuilder {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if level < flate.BestSpeed || level > flate.BestCompression {
		level = DefaultCompressionLevel
	}
	return &ZipBuilder{tempDir: tempDir, level: level, logger: logger}
}

type sourceFile struct {
	path string
	name string
}

// BuildArchive zips every regular file under sourceDir into tempDir/archiveName and
// returns the absolute archive path. Entries are named by their slash-separated
// path relative to sourceDir and added in lexical order. Nothing is left behind
// on failure.
func (z *ZipBuilder) BuildArchive(ctx context.Context, sourceDir string, archiveName string) (archivePath string, err error) {
	defer func() {
		err = entity.AtStage(entity.StageArchiving, err)
	}()

	if err := validateArchiveName(archiveName); err != nil {
		return "", err
	}

	files, err := collectFiles(sourceDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(z.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create archive dir: %w", entity.ErrIO, err)
	}
	target, err := filepath.Abs(filepath.Join(z.tempDir, archiveName))
	if err != nil {
		return "", fmt.Errorf("%w: resolve archive path: %w", entity.ErrIO, err)
	}

	tmp, err := os.CreateTemp(z.tempDir, archiveName+".*.partial")
	if err != nil {
		return "", fmt.Errorf("%w: create archive file: %w", entity.ErrIO, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, z.level)
	})

	for _, f := range files {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: archiving aborted: %w", entity.ErrIO, ctx.Err())
		default:
		}

		if err := addFileToZip(zw, f); err != nil {
			return "", fmt.Errorf("%w: add %s: %w", entity.ErrIO, f.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("%w: finalize archive: %w", entity.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: close archive: %w", entity.ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("%w: move archive into place: %w", entity.ErrIO, err)
	}

	z.logger.Info("archive built",
		zap.String("source_dir", sourceDir),
		zap.String("archive", target),
		zap.Int("entries", len(files)),
	)
	return target, nil
}

func validateArchiveName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: archive name %q must be a plain file name", entity.ErrInvalidInput, name)
	}
	return nil
}

// collectFiles lists the regular files under root, sorted by entry name.
// A symlinked root is resolved first; links below it are not followed.
func collectFiles(root string) ([]sourceFile, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("%w: source directory: %w", entity.ErrIO, err)
	}
	root = resolved

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: source directory: %w", entity.ErrIO, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: source %s is not a directory", entity.ErrIO, root)
	}

	var files []sourceFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, sourceFile{path: path, name: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %w", entity.ErrIO, root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

func addFileToZip(zw *zip.Writer, f sourceFile) error {
	file, err := os.Open(f.path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = f.name
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}
