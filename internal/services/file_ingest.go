package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/traxaero/interfaces/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	outcomeProcessed = "PROCESSED_"
	outcomeFailure   = "FAILURE_"

	// fieldMark stands in for a multi-character separator so encoding/csv
	// can split on a single rune.
	fieldMark = '\x01'
)

// FileIngestPipeline walks InputDir, parses each delimited file into
// records of type T, processes them concurrently and archives the input.
type FileIngestPipeline[T any] struct {
	Name       string
	InputDir   string
	ArchiveDir string
	Workers    int
	Decrypter  FileDecrypter
	Separator  string
	SkipHeader bool

	Parse   func(fields []string) (T, error)
	Process func(ctx context.Context, rec T) error
	Format  func(rec T) []string

	Now func() time.Time
}

// FileOutcome describes one ingested file.
type FileOutcome struct {
	Name        string
	Processed   int
	Failed      int
	FailureFile string
	Errors      []string
}

type IngestResult struct {
	Files        int
	Processed    int
	Failed       int
	FailureFiles []string
	Outcomes     []FileOutcome
}

type ingestRow[T any] struct {
	line   int
	raw    []string
	rec    T
	err    error
	parsed bool
}

func (p *FileIngestPipeline[T]) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *FileIngestPipeline[T]) archiveDir() string {
	if p.ArchiveDir != "" {
		return p.ArchiveDir
	}
	return filepath.Join(p.InputDir, "compFiles")
}

func (p *FileIngestPipeline[T]) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return 1
}

// Run ingests every eligible file currently in InputDir. Problems are
// recorded into report; only a failure to list the input directory is
// returned as an error.
func (p *FileIngestPipeline[T]) Run(ctx context.Context, report *RunReport) (*IngestResult, error) {
	if p.Parse == nil || p.Process == nil {
		return nil, errors.New("ingest pipeline requires Parse and Process")
	}

	entries, err := os.ReadDir(p.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir %s: %w", p.InputDir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".pgp":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	result := &IngestResult{}
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		outcome := p.ingestFile(ctx, name, report)
		result.Files++
		result.Processed += outcome.Processed
		result.Failed += outcome.Failed
		if outcome.FailureFile != "" {
			result.FailureFiles = append(result.FailureFiles, outcome.FailureFile)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	report.AddCounts(result.Processed, result.Failed)
	return result, nil
}

func (p *FileIngestPipeline[T]) ingestFile(ctx context.Context, name string, report *RunReport) FileOutcome {
	outcome := FileOutcome{Name: name}
	fail := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		outcome.Errors = append(outcome.Errors, msg)
		report.Errorf(name, "%s", msg)
	}

	path := filepath.Join(p.InputDir, name)
	logger.Infof("[%s] Checking file %s", p.Name, path)

	if strings.EqualFold(filepath.Ext(name), ".pgp") {
		plain, err := p.decrypt(path)
		if err != nil {
			fail("failed to decrypt file: %v", err)
			if moved, mvErr := p.archive(path, name, outcomeFailure); mvErr == nil {
				outcome.FailureFile = moved
			} else {
				fail("failed to archive %s: %v", name, mvErr)
			}
			return outcome
		}
		path = plain
		name = filepath.Base(plain)
	}

	rows, err := p.readRows(path)
	if err != nil {
		fail("failed to read file: %v", err)
		if moved, mvErr := p.archive(path, name, outcomeFailure); mvErr == nil {
			outcome.FailureFile = moved
		} else {
			fail("failed to archive %s: %v", name, mvErr)
		}
		return outcome
	}

	var mu sync.Mutex
	failedIdx := make(map[int]bool)
	markFailed := func(i int, msg string) {
		mu.Lock()
		defer mu.Unlock()
		failedIdx[i] = true
		outcome.Errors = append(outcome.Errors, msg)
		report.Errorf(name, "%s", msg)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i := range rows {
		row := &rows[i]
		if !row.parsed {
			markFailed(i, fmt.Sprintf("line %d: %v", row.line, row.err))
			continue
		}
		i := i
		g.Go(func() error {
			if err := p.Process(gctx, row.rec); err != nil {
				markFailed(i, fmt.Sprintf("line %d: %v", row.line, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	outcome.Failed = len(failedIdx)
	outcome.Processed = len(rows) - outcome.Failed

	if outcome.Failed > 0 {
		var lines [][]string
		for i := range rows {
			if !failedIdx[i] {
				continue
			}
			if rows[i].parsed && p.Format != nil {
				lines = append(lines, p.Format(rows[i].rec))
			} else {
				lines = append(lines, rows[i].raw)
			}
		}
		failurePath, err := p.writeFailures(name, lines)
		if err != nil {
			fail("failed to write failure file: %v", err)
		} else {
			outcome.FailureFile = failurePath
		}
	}

	if _, err := p.archive(path, name, outcomeProcessed); err != nil {
		fail("failed to archive %s: %v", name, err)
	}

	logger.Infof("[%s] File %s done: processed=%d failed=%d", p.Name, name, outcome.Processed, outcome.Failed)
	return outcome
}

// decrypt writes the input, minus its .pgp suffix and ending in .csv, next
// to the input and removes the input.
func (p *FileIngestPipeline[T]) decrypt(path string) (string, error) {
	if p.Decrypter == nil {
		return "", errors.New("no decryption key configured")
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if !strings.EqualFold(filepath.Ext(base), ".csv") {
		base += ".csv"
	}
	plain := filepath.Join(filepath.Dir(path), base)
	if err := p.Decrypter.DecryptFile(path, plain); err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil {
		logger.Warn().Err(err).Msgf("[%s] Failed to remove decrypted input %s", p.Name, path)
	}
	return plain, nil
}

func (p *FileIngestPipeline[T]) readRows(path string) ([]ingestRow[T], error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(content))
	if p.Separator != "" && p.Separator != "," {
		if len(p.Separator) == 1 {
			r.Comma = rune(p.Separator[0])
		} else {
			content = bytes.ReplaceAll(content, []byte(p.Separator), []byte{fieldMark})
			r = csv.NewReader(bytes.NewReader(content))
			r.Comma = fieldMark
		}
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows []ingestRow[T]
	line := 0
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && p.SkipHeader {
			continue
		}

		row := ingestRow[T]{line: line, raw: fields}
		rec, perr := p.Parse(fields)
		if perr != nil {
			row.err = perr
		} else {
			row.rec = rec
			row.parsed = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (p *FileIngestPipeline[T]) datedArchiveDir() (string, error) {
	dir := filepath.Join(p.archiveDir(), p.now().Format("20060102"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

func (p *FileIngestPipeline[T]) archivedName(outcome, name string) string {
	return outcome + strconv.FormatInt(p.now().UnixMilli(), 10) + "_" + name
}

func (p *FileIngestPipeline[T]) archive(path, name, outcome string) (string, error) {
	dir, err := p.datedArchiveDir()
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, p.archivedName(outcome, name))
	if err := os.Rename(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (p *FileIngestPipeline[T]) writeFailures(name string, lines [][]string) (string, error) {
	dir, err := p.datedArchiveDir()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, fields := range lines {
		sb.WriteString(strings.Join(fields, "|"))
		sb.WriteString("\n")
	}
	dst := filepath.Join(dir, p.archivedName(outcomeFailure, name))
	if err := os.WriteFile(dst, []byte(sb.String()), 0644); err != nil {
		return "", err
	}
	return dst, nil
}
