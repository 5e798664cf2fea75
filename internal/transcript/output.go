package transcript

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/ulikunitz/xz"
)

// WriteOptions control what WriteTranscripts persists.
type WriteOptions struct {
	Format FormatOptions
	// CompressRaw stores the raw source copy xz-compressed.
	CompressRaw bool
}

// WriteResult lists what was written for reporting.
type WriteResult struct {
	TranscriptPath string
	ExtendedPath   string
	SidechainPaths []string
	RawPath        string
}

// WriteTranscripts renders and persists all transcript artifacts for an
// assembled session: the simple and extended markdown documents, one file
// per sidechain branch, and a raw concatenation of the source logs for
// traceability. The output directory is lock-guarded so concurrent batch
// runs cannot interleave writes.
func WriteTranscripts(outDir string, g *Graph, sourcePaths []string, opts WriteOptions) (*WriteResult, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	lock := flock.New(filepath.Join(outDir, ".lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock output dir: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	flow := LinearFlow(g)
	branches := Branches(g)
	result := &WriteResult{}

	result.TranscriptPath = filepath.Join(outDir, "transcript.md")
	if err := os.WriteFile(result.TranscriptPath, []byte(FormatSimple(g, flow, opts.Format)), 0o644); err != nil {
		return nil, fmt.Errorf("write transcript: %w", err)
	}

	result.ExtendedPath = filepath.Join(outDir, "transcript_extended.md")
	if err := os.WriteFile(result.ExtendedPath, []byte(FormatExtended(g, branches, opts.Format)), 0o644); err != nil {
		return nil, fmt.Errorf("write extended transcript: %w", err)
	}

	for _, br := range branches {
		if !br.IsSidechain {
			continue
		}
		dir := filepath.Join(outDir, "sidechains", br.ID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sidechain dir: %w", err)
		}
		path := filepath.Join(dir, "transcript.md")
		if err := os.WriteFile(path, []byte(FormatBranch(g, br, opts.Format)), 0o644); err != nil {
			return nil, fmt.Errorf("write sidechain transcript: %w", err)
		}
		result.SidechainPaths = append(result.SidechainPaths, path)
	}

	rawPath, err := writeRawCopy(outDir, sourcePaths, opts.CompressRaw)
	if err != nil {
		return nil, err
	}
	result.RawPath = rawPath
	return result, nil
}

// writeRawCopy concatenates the lineage-ordered source files verbatim.
func writeRawCopy(outDir string, sourcePaths []string, compress bool) (string, error) {
	name := "session.jsonl"
	if compress {
		name += ".xz"
	}
	path := filepath.Join(outDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create raw copy: %w", err)
	}
	defer out.Close()

	var dst io.Writer = out
	var xzWriter *xz.Writer
	if compress {
		xzWriter, err = xz.NewWriter(out)
		if err != nil {
			return "", fmt.Errorf("init xz writer: %w", err)
		}
		dst = xzWriter
	}

	for _, src := range sourcePaths {
		if err := appendFile(dst, src); err != nil {
			return "", fmt.Errorf("copy %s: %w", src, err)
		}
	}

	if xzWriter != nil {
		if err := xzWriter.Close(); err != nil {
			return "", fmt.Errorf("finish xz stream: %w", err)
		}
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close raw copy: %w", err)
	}
	return path, nil
}

func appendFile(dst io.Writer, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(dst, f); err != nil {
		return err
	}
	_, err = dst.Write([]byte("\n"))
	return err
}
