// Package archive streams line-delimited byte chunks out of a patent
// grant bulk archive. A locator is either an HTTP(S) URL or a local
// path to a zip archive; URLs are downloaded to a temp file first
// because zip needs random access. A bare XML file is treated as an
// archive with a single member.
package archive

import (
	"archive/zip"
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/grantstream/patentrag/internal/domain"
)

// readerBufSize is the line buffer size. Grant XML lines are short, but
// claims paragraphs occasionally run long.
const readerBufSize = 1 << 20

// Source locates and opens one grant archive.
type Source struct {
	locator string
	client  *http.Client
	logger  *zap.Logger
}

// New creates a Source for the given locator.
func New(locator string, timeout time.Duration, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		locator: locator,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Open fetches the archive if remote and returns a LineReader over all
// members in archive order. Any failure here is fatal for the run.
func (s *Source) Open(ctx context.Context) (*LineReader, error) {
	path := s.locator
	var cleanup func()

	if isURL(s.locator) {
		tmp, err := s.download(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w: %w", s.locator, err, domain.ErrArchiveUnavailable)
		}
		path = tmp
		cleanup = func() { _ = os.Remove(tmp) }
	}

	lr, err := openArchive(path, cleanup)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, fmt.Errorf("open %s: %w: %w", s.locator, err, domain.ErrArchiveUnavailable)
	}

	s.logger.Info("archive opened",
		zap.String("locator", s.locator),
		zap.Int("members", len(lr.members)),
	)
	return lr, nil
}

func isURL(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// download fetches the archive into a temp file.
func (s *Source) download(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.locator, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "patentrag-*.zip")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	tmpPath := f.Name()

	written, err := io.Copy(f, &progressReader{
		reader: resp.Body,
		total:  resp.ContentLength,
		name:   filepath.Base(s.locator),
		logger: s.logger,
	})
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write: %w", err)
	}

	s.logger.Info("archive downloaded",
		zap.String("locator", s.locator),
		zap.Int64("bytes", written),
	)
	return tmpPath, nil
}

// progressReader logs download progress.
type progressReader struct {
	reader  io.Reader
	total   int64
	current int64
	name    string
	logger  *zap.Logger
	lastLog time.Time
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)

	if time.Since(pr.lastLog) > 5*time.Second {
		pr.lastLog = time.Now()
		if pr.total > 0 {
			pct := float64(pr.current) / float64(pr.total) * 100
			pr.logger.Info("downloading",
				zap.String("file", pr.name),
				zap.String("progress", fmt.Sprintf("%.1f%%", pct)),
				zap.Int64("mb", pr.current/1024/1024),
			)
		}
	}

	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read: %w", err)
	}
	return n, err
}

// member is one file inside the archive.
type member struct {
	name string
	open func() (io.ReadCloser, error)
}

// openArchive opens path as a zip, or as a single plain member when the
// zip signature is absent.
func openArchive(path string, cleanup func()) (*LineReader, error) {
	cleanPath := filepath.Clean(path)

	zr, err := zip.OpenReader(cleanPath)
	if err == nil {
		members := make([]member, 0, len(zr.File))
		for _, zf := range zr.File {
			zf := zf
			members = append(members, member{name: zf.Name, open: zf.Open})
		}
		return &LineReader{members: members, closer: zr.Close, cleanup: cleanup}, nil
	}

	f, ferr := os.Open(cleanPath)
	if ferr != nil {
		return nil, fmt.Errorf("open: %w", ferr)
	}
	_ = f.Close()

	// Not a zip: expose the file itself as the only member.
	members := []member{{
		name: filepath.Base(cleanPath),
		open: func() (io.ReadCloser, error) {
			rc, oerr := os.Open(cleanPath)
			if oerr != nil {
				return nil, fmt.Errorf("open member: %w", oerr)
			}
			return rc, nil
		},
	}}
	return &LineReader{members: members, cleanup: cleanup}, nil
}

// LineReader yields raw lines from all archive members in order. Lines
// keep their trailing newline bytes so that downstream splitting is
// loss-less.
type LineReader struct {
	members []member
	idx     int
	current io.ReadCloser
	buf     *bufio.Reader
	closer  func() error
	cleanup func()
}

// Name returns the current member name, for logging only.
func (lr *LineReader) Name() string {
	if lr.idx == 0 || lr.idx > len(lr.members) {
		return ""
	}
	return lr.members[lr.idx-1].name
}

// Next returns the next raw line. The final line of a member may lack a
// trailing newline. Returns io.EOF after the last member is exhausted.
func (lr *LineReader) Next() ([]byte, error) {
	for {
		if lr.buf == nil {
			if lr.idx >= len(lr.members) {
				return nil, io.EOF
			}
			m := lr.members[lr.idx]
			lr.idx++
			rc, err := m.open()
			if err != nil {
				return nil, fmt.Errorf("open member %s: %w", m.name, err)
			}
			lr.current = rc
			lr.buf = bufio.NewReaderSize(rc, readerBufSize)
		}

		line, err := lr.buf.ReadBytes('\n')
		if len(line) > 0 {
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("read member %s: %w", lr.Name(), err)
			}
			return line, nil
		}
		if err == io.EOF {
			_ = lr.current.Close()
			lr.current = nil
			lr.buf = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read member %s: %w", lr.Name(), err)
		}
	}
}

// Close releases the archive and removes any downloaded temp file.
func (lr *LineReader) Close() error {
	if lr.current != nil {
		_ = lr.current.Close()
		lr.current = nil
	}
	var err error
	if lr.closer != nil {
		err = lr.closer()
	}
	if lr.cleanup != nil {
		lr.cleanup()
	}
	return err
}
