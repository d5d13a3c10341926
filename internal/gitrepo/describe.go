package gitrepo

import (
	git "gopkg.in/src-d/go-git.v4"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
)

// Revision describes the checked-out state of an installed repository.
type Revision struct {
	Branch string
	Commit string
	Origin string
}

// String renders branch@shortcommit.
func (r Revision) String() string {
	commit := r.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if r.Branch == "" {
		return commit
	}
	return r.Branch + "@" + commit
}

// Describe reads the checkout at path without invoking git. Branch is empty
// for a detached HEAD and Origin is empty when there is no origin remote.
func Describe(path string) (Revision, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return Revision{}, errors.Newf(errors.ErrNotFound, "%s is not a git repository", path)
		}
		return Revision{}, errors.Wrapf(err, errors.ErrFilesystem, "open repository %s", path)
	}

	head, err := repo.Head()
	if err != nil {
		return Revision{}, errors.Wrapf(err, errors.ErrMetadataInvalid, "resolve HEAD of %s", path)
	}

	rev := Revision{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			rev.Origin = urls[0]
		}
	}
	return rev, nil
}
