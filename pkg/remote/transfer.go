package remote

import (
	"io"

	breverrors "github.com/auroradev/aurora-cli/pkg/errors"
	"github.com/auroradev/aurora-cli/pkg/progress"
	"go.uber.org/zap"
)

// Upload copies localPath to UploadDir on the target. onProgress sees
// Fetching, Preparing, Starting and then percentages ending at 100.
func (s *Session) Upload(localPath string, onProgress progress.Func) (string, error) {
	if onProgress == nil {
		onProgress = progress.Nop
	}
	onProgress(progress.Fetching())
	local, err := s.fs.Open(localPath)
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	defer local.Close() //nolint:errcheck // read only
	info, err := local.Stat()
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}

	onProgress(progress.Preparing())
	files, err := s.transfer()
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	remotePath := RemoteUploadPath(localPath)
	dst, err := files.Create(remotePath)
	if err != nil {
		return "", breverrors.WrapAndTrace(err)
	}

	onProgress(progress.Starting())
	tracker := progress.NewTracker(info.Size(), onProgress)
	if _, err := io.Copy(io.MultiWriter(dst, tracker), local); err != nil {
		_ = dst.Close()
		return "", breverrors.WrapAndTrace(err)
	}
	if err := dst.Close(); err != nil {
		return "", breverrors.WrapAndTrace(err)
	}
	tracker.Finish()
	s.log.Debug("uploaded", zap.String("local", localPath), zap.String("remote", remotePath), zap.Int64("bytes", info.Size()))
	return remotePath, nil
}

// Download copies remotePath from the target into localPath with the same
// progress contract as Upload.
func (s *Session) Download(remotePath, localPath string, onProgress progress.Func) error {
	if onProgress == nil {
		onProgress = progress.Nop
	}
	onProgress(progress.Fetching())
	files, err := s.transfer()
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	src, size, err := files.Open(remotePath)
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	defer src.Close() //nolint:errcheck // read only

	onProgress(progress.Preparing())
	dst, err := s.fs.Create(localPath)
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}

	onProgress(progress.Starting())
	tracker := progress.NewTracker(size, onProgress)
	if _, err := io.Copy(io.MultiWriter(dst, tracker), src); err != nil {
		_ = dst.Close()
		return breverrors.WrapAndTrace(err)
	}
	if err := dst.Close(); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	tracker.Finish()
	return nil
}
