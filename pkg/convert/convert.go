// Package convert writes synthesized speech to a file on disk. The output
// file appears only once the engine has finished; on failure nothing is
// left behind at the output path. A symlinked output path keeps its link
// and the file it points at receives the audio.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/sipeed/picospeak/pkg/logger"
	"github.com/sipeed/picospeak/pkg/voice"
)

// ErrNoAudio is returned when the engine finished without producing a byte.
var ErrNoAudio = errors.New("engine returned no audio")

// sniffLen is how much of the head filetype needs to match any type.
const sniffLen = 262

type Result struct {
	Path   string
	Engine string
	Bytes  int64
	// MIME is the sniffed content type, or empty if it was not recognized.
	MIME string
}

// maxTempBase bounds how much of the output name goes into the temp name.
const maxTempBase = 64

// ToFile synthesizes req with synth and stores the audio at outPath.
func ToFile(ctx context.Context, synth voice.Synthesizer, req voice.Request, outPath string) (*Result, error) {
	dst, err := resolveTarget(outPath)
	if err != nil {
		return nil, err
	}

	tmp, err := createTemp(dst.path)
	if err != nil {
		return nil, withPath(err, outPath)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	head := &headWriter{w: tmp, limit: sniffLen}
	n, err := synth.Synthesize(ctx, req, head)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNoAudio
	}

	mime := sniff(head.buf)
	if mime == "" {
		logger.InfoCF("convert", "Engine output is not recognized as audio", map[string]any{
			"engine": synth.Name(),
			"bytes":  n,
		})
	}

	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("failed to flush audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close audio: %w", err)
	}
	if dst.exists {
		if err := os.Chmod(tmpName, dst.mode); err != nil {
			return nil, fmt.Errorf("failed to set audio permissions: %w", err)
		}
	}
	if err := os.Rename(tmpName, dst.path); err != nil {
		return nil, err
	}
	committed = true

	logger.InfoCF("convert", "Audio written", map[string]any{
		"path":   outPath,
		"target": dst.path,
		"engine": synth.Name(),
		"bytes":  n,
		"mime":   mime,
	})

	return &Result{Path: outPath, Engine: synth.Name(), Bytes: n, MIME: mime}, nil
}

// target is the file the audio replaces once synthesis succeeds.
type target struct {
	path   string
	exists bool
	mode   fs.FileMode
}

// resolveTarget follows a symlinked outPath and checks that an existing
// file there can be opened for writing.
func resolveTarget(outPath string) (target, error) {
	path := outPath
	if info, err := os.Lstat(outPath); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(outPath)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return target{}, withPath(err, outPath)
			}
			// Dangling link: write the file it names.
			link, err := os.Readlink(outPath)
			if err != nil {
				return target{}, withPath(err, outPath)
			}
			if !filepath.IsAbs(link) {
				link = filepath.Join(filepath.Dir(outPath), link)
			}
			resolved = link
		}
		path = resolved
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return target{path: path}, nil
	case err != nil:
		return target{}, withPath(err, outPath)
	case info.IsDir():
		return target{}, &fs.PathError{Op: "open", Path: outPath, Err: syscall.EISDIR}
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return target{}, withPath(err, outPath)
	}
	f.Close()

	return target{path: path, exists: true, mode: info.Mode().Perm()}, nil
}

// createTemp opens a fresh file next to path with the mode a plain create
// would get under the current umask.
func createTemp(path string) (*os.File, error) {
	base := filepath.Base(path)
	if len(base) > maxTempBase {
		base = strings.ToValidUTF8(base[:maxTempBase], "")
	}
	name := filepath.Join(filepath.Dir(path), "."+base+"."+uuid.NewString()+".tmp")
	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o666)
}

// withPath reports a filesystem error against the path the user gave.
func withPath(err error, path string) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return &fs.PathError{Op: "open", Path: path, Err: pathErr.Err}
	}
	return err
}

func sniff(head []byte) string {
	if !filetype.IsAudio(head) {
		return ""
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}

// headWriter passes writes through and keeps the first limit bytes.
type headWriter struct {
	w     *os.File
	buf   []byte
	limit int
}

func (h *headWriter) Write(p []byte) (int, error) {
	if room := h.limit - len(h.buf); room > 0 {
		if room > len(p) {
			room = len(p)
		}
		h.buf = append(h.buf, p[:room]...)
	}
	return h.w.Write(p)
}
