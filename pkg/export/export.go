// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🚨 Error taxonomy, match with errors.Is
var (
	ErrSourceNotFound         = errors.Base("source file not found")
	ErrDestinationUnavailable = errors.Base("destination directory unavailable")
	ErrPermissionDenied       = errors.Base("permission denied")
	ErrInvalidFilename        = errors.Base("invalid filename")
	ErrSameFile               = errors.Base("source and destination are the same file")
)

// defaultMode is used when no file exists at the destination yet.
const defaultMode fs.FileMode = 0o644

// 📊 Status describes what the export did to the destination file
type Status int

const (
	StatusUnknown   Status = iota
	StatusNew              // nothing existed at the destination
	StatusModified         // destination existed with different content
	StatusUnchanged        // destination existed with identical content
)

// String returns a string representation of Status
func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// 📦 Result describes a completed export
type Result struct {
	Source      string // absolute path of the copied file
	Destination string // absolute path of the written file
	Size        int64  // bytes written
	Checksum    string // hex SHA-256 of the content
	Status      Status
}

// 🚀 ExportBuiltFile copies sourceDir/filename to destDir/filename.
//
// Both directories are resolved to absolute paths first. An existing
// destination file is replaced. The destination directory must already
// exist; it is never created. When destDir/filename is a symlink its target is
// written instead. Content is staged in a temp file next to the written file
// and renamed into place, so a failed export leaves the destination as it was.
func ExportBuiltFile(ctx context.Context, filename, sourceDir, destDir string) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}

	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, errors.Errorf("resolving source directory: %w", err)
	}
	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return nil, errors.Errorf("resolving destination directory: %w", err)
	}

	srcPath := filepath.Join(absSource, filename)
	dstPath := filepath.Join(absDest, filename)

	logger.Debug().Str("source", srcPath).Str("destination", dstPath).Msg("exporting built file")

	src, srcInfo, err := openSource(srcPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if err := checkDestinationDir(absDest); err != nil {
		return nil, err
	}

	existing, err := inspectDestination(srcInfo, dstPath)
	if err != nil {
		return nil, err
	}
	dstPath = existing.path

	size, checksum, err := writeFileAtomic(src, filepath.Dir(dstPath), dstPath, existing.mode)
	if err != nil {
		return nil, err
	}

	status := StatusNew
	if existing.exists {
		status = StatusModified
		if existing.checksum == checksum {
			status = StatusUnchanged
		}
	}

	logger.Debug().
		Str("destination", dstPath).
		Int64("size", size).
		Str("checksum", checksum).
		Str("status", status.String()).
		Msg("built file exported")

	return &Result{
		Source:      srcPath,
		Destination: dstPath,
		Size:        size,
		Checksum:    checksum,
		Status:      status,
	}, nil
}

// 🔍 ValidateFilename checks that name is a bare file name
func ValidateFilename(name string) error {
	if name == "" {
		return errors.Errorf("%w: filename is empty", ErrInvalidFilename)
	}
	if name == "." || name == ".." || filepath.Base(name) != name {
		return errors.Errorf("%w: %q is not a base name", ErrInvalidFilename, name)
	}
	return nil
}

func openSource(path string) (*os.File, fs.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, classify(err, ErrSourceNotFound)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, errors.Errorf("%w: %w", ErrSourceNotFound, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, errors.Errorf("%w: %s is not a regular file", ErrSourceNotFound, path)
	}

	return f, info, nil
}

func checkDestinationDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return classify(err, ErrDestinationUnavailable)
	}
	if !info.IsDir() {
		return errors.Errorf("%w: %s is not a directory", ErrDestinationUnavailable, dir)
	}
	return nil
}

// destinationFile is what was at the destination path before the export
type destinationFile struct {
	path     string // file that will be written, symlinks resolved
	exists   bool
	mode     fs.FileMode // mode the written file should carry
	checksum string
}

func inspectDestination(srcInfo fs.FileInfo, dstPath string) (destinationFile, error) {
	info, err := os.Lstat(dstPath)
	if errors.Is(err, fs.ErrNotExist) {
		return destinationFile{path: dstPath, mode: defaultMode}, nil
	}
	if err != nil {
		return destinationFile{}, classify(err, ErrDestinationUnavailable)
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(dstPath)
		if err != nil {
			return destinationFile{}, classify(err, ErrDestinationUnavailable)
		}
		dstPath = resolved
		if info, err = os.Stat(dstPath); err != nil {
			return destinationFile{}, classify(err, ErrDestinationUnavailable)
		}
	}

	if os.SameFile(srcInfo, info) {
		return destinationFile{}, errors.Errorf("%w: %s", ErrSameFile, dstPath)
	}
	if !info.Mode().IsRegular() {
		return destinationFile{}, errors.Errorf("%w: %s is not a regular file", ErrDestinationUnavailable, dstPath)
	}
	if err := checkWritable(dstPath, info); err != nil {
		return destinationFile{}, err
	}

	// an unreadable old file only costs us the unchanged detection
	sum, _ := checksumFile(dstPath)

	return destinationFile{
		path:     dstPath,
		exists:   true,
		mode:     info.Mode().Perm(),
		checksum: sum,
	}, nil
}

// checkWritable refuses to replace a file the caller could not open for
// writing. A file without any write bit counts as read-only for every user.
func checkWritable(path string, info fs.FileInfo) error {
	if info.Mode().Perm()&0o222 == 0 {
		return errors.Errorf("%w: %s is read-only", ErrPermissionDenied, path)
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return classify(err, ErrDestinationUnavailable)
	}
	return f.Close()
}

// 📝 writeFileAtomic streams src into a temp file in dir and renames it to
// dstPath.
func writeFileAtomic(src io.Reader, dir, dstPath string, mode fs.FileMode) (int64, string, error) {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dstPath)+".tmp-*")
	if err != nil {
		return 0, "", classify(err, ErrDestinationUnavailable)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hash), src)
	if err != nil {
		cleanup()
		return 0, "", errors.Errorf("copying content: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return 0, "", errors.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, "", errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return 0, "", classify(err, ErrDestinationUnavailable)
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		os.Remove(tmpPath)
		return 0, "", classify(err, ErrDestinationUnavailable)
	}

	return size, hex.EncodeToString(hash.Sum(nil)), nil
}

// classify wraps err with kind, or with ErrPermissionDenied when the
// filesystem refused access.
func classify(err error, kind error) error {
	if errors.Is(err, fs.ErrPermission) {
		return errors.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return errors.Errorf("%w: %w", kind, err)
}

// 🔍 checksumFile returns the hex SHA-256 of the file at path
func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
