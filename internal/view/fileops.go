package view

import (
	apperrors "shellview/internal/errors"
	"shellview/internal/fileinfo"
	"shellview/internal/jobs"
	"shellview/internal/shell"
)

// Copy copies sources into destDir on a background job.
func (s *Session) Copy(sources []string, destDir string) *jobs.Job {
	return s.submit(batchOf(shell.OpCopy, sources, destDir, false))
}

// Move moves sources into destDir on a background job.
func (s *Session) Move(sources []string, destDir string) *jobs.Job {
	return s.submit(batchOf(shell.OpMove, sources, destDir, false))
}

// Delete removes sources, through the trash when recycle is set.
func (s *Session) Delete(sources []string, recycle bool) *jobs.Job {
	return s.submit(batchOf(shell.OpDelete, sources, "", recycle))
}

// Rename renames the item at row. The resulting rename event is placed
// at that row.
func (s *Session) Rename(row int, name string) (*jobs.Job, error) {
	item, ok := s.store.At(row)
	if !ok {
		return nil, apperrors.NewFileOperationError("rename", "", apperrors.ErrPathNotFound)
	}
	if item.ParsingPath == "" {
		return nil, apperrors.NewFileOperationError("rename", string(item.ID), apperrors.ErrAccessDenied)
	}
	target := fileinfo.JoinPath(fileinfo.ParentPath(item.ParsingPath), name)
	seq := s.marker.set(row, s.provider.Identify(target))
	j := s.submit(shell.Batch{Ops: []shell.Op{{Kind: shell.OpRename, Source: item.ParsingPath, Name: name}}})
	s.releaseMarkerOnFailure(j, seq)
	return j, nil
}

// NewFolder creates a folder in the current folder. It is placed at the
// end of the list, where the host starts editing its name.
func (s *Session) NewFolder(name string) (*jobs.Job, error) {
	folder := s.Folder()
	if folder == nil || folder.ParsingPath == "" || s.provider.IsRoot(folder) {
		return nil, apperrors.NewFileOperationError("newfolder", "", apperrors.ErrAccessDenied)
	}
	target := fileinfo.JoinPath(folder.ParsingPath, name)
	seq := s.marker.set(s.store.Len(), s.provider.Identify(target))
	j := s.submit(shell.Batch{Ops: []shell.Op{{Kind: shell.OpNewFolder, Dest: folder.ParsingPath, Name: name}}})
	s.releaseMarkerOnFailure(j, seq)
	return j, nil
}

func batchOf(kind shell.OpKind, sources []string, dest string, recycle bool) shell.Batch {
	b := shell.Batch{Ops: make([]shell.Op, 0, len(sources))}
	for _, src := range sources {
		b.Ops = append(b.Ops, shell.Op{Kind: kind, Source: src, Dest: dest, Recycle: recycle})
	}
	return b
}

func (s *Session) submit(b shell.Batch) *jobs.Job {
	j := s.jobs.Submit(s.ctx, b)
	s.dbg("job %d: %d ops", j.ID, len(b.Ops))
	return j
}

// releaseMarkerOnFailure clears a marker nobody will consume because the
// job that set it failed.
func (s *Session) releaseMarkerOnFailure(j *jobs.Job, seq uint64) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if err := j.Wait(); err != nil {
			s.marker.release(seq)
			s.log.Warn().Err(err).Int64("job", j.ID).Msg("file operation failed")
		}
	}()
}
