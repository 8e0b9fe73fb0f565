package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileWriter writes logs to a file that rotates by size and by day. Rotated
// files are gzip-compressed and only the newest maxFiles are kept.
type FileWriter struct {
	mu           sync.Mutex
	dir          string
	filename     string
	maxSize      int64
	maxFiles     int
	currentFile  *os.File
	currentSize  int64
	lastRotation time.Time
	now          func() time.Time
	wg           sync.WaitGroup
}

// NewFileWriter creates a new file writer with rotation.
func NewFileWriter(dir, filename string, maxSizeMB, maxFiles int) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if maxFiles <= 0 {
		maxFiles = 5
	}

	fw := &FileWriter{
		dir:      dir,
		filename: filename,
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		maxFiles: maxFiles,
		now:      time.Now,
	}
	fw.lastRotation = fw.now()

	if err := fw.openFile(); err != nil {
		return nil, err
	}

	return fw, nil
}

// Path returns the path of the active log file.
func (fw *FileWriter) Path() string {
	return filepath.Join(fw.dir, fw.filename)
}

func (fw *FileWriter) openFile() error {
	f, err := os.OpenFile(fw.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	fw.currentFile = f
	fw.currentSize = info.Size()
	return nil
}

func (fw *FileWriter) Write(p []byte) (n int, err error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.currentFile == nil {
		return 0, os.ErrClosed
	}

	if fw.shouldRotate(int64(len(p))) {
		if err := fw.rotate(); err != nil {
			return 0, err
		}
	}

	n, err = fw.currentFile.Write(p)
	fw.currentSize += int64(n)
	return n, err
}

func (fw *FileWriter) shouldRotate(writeSize int64) bool {
	if fw.currentSize == 0 {
		return false
	}
	if fw.maxSize > 0 && fw.currentSize+writeSize > fw.maxSize {
		return true
	}
	return fw.now().Sub(fw.lastRotation) > 24*time.Hour
}

func (fw *FileWriter) rotate() error {
	if fw.currentFile != nil {
		if err := fw.currentFile.Close(); err != nil {
			return fmt.Errorf("close current file: %w", err)
		}
	}

	oldPath := fw.Path()
	timestamp := fw.now().Format("20060102-150405.000000000")
	newPath := filepath.Join(fw.dir, fmt.Sprintf("%s.%s", fw.filename, timestamp))

	if err := os.Rename(oldPath, newPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}

	fw.wg.Add(1)
	go func() {
		defer fw.wg.Done()
		compressFile(newPath)
		fw.cleanup()
	}()

	if err := fw.openFile(); err != nil {
		return err
	}

	fw.lastRotation = fw.now()
	return nil
}

func compressFile(path string) {
	gzPath := path + ".gz"
	in, err := os.Open(path)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(gzPath)
	if err != nil {
		return
	}

	gzWriter := gzip.NewWriter(out)
	_, copyErr := io.Copy(gzWriter, in)
	closeErr := gzWriter.Close()
	out.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(gzPath)
		return
	}

	os.Remove(path)
}

func (fw *FileWriter) cleanup() {
	fw.mu.Lock()
	dir := fw.dir
	filename := fw.filename
	maxFiles := fw.maxFiles
	fw.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(dir, filename+".*.gz"))
	if err != nil {
		return
	}

	// Oldest first.
	sort.Slice(matches, func(i, j int) bool {
		infoI, errI := os.Stat(matches[i])
		infoJ, errJ := os.Stat(matches[j])
		if errI != nil || errJ != nil {
			return matches[i] < matches[j]
		}
		return infoI.ModTime().Before(infoJ.ModTime())
	})

	if len(matches) > maxFiles {
		for _, path := range matches[:len(matches)-maxFiles] {
			os.Remove(path)
		}
	}
}

// Close waits for pending compressions and closes the active file.
func (fw *FileWriter) Close() error {
	fw.wg.Wait()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.currentFile == nil {
		return nil
	}
	err := fw.currentFile.Close()
	fw.currentFile = nil
	return err
}
