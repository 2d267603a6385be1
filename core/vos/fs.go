package vos

import (
	"os"
	"path"
	"sort"
	"time"

	"github.com/spf13/afero"
)

// VFS implements the virtual filesystem the shell runs over. It is the only
// storage boundary the interpreter touches.
type VFS = afero.Fs

// NewMemFS creates an empty in-memory filesystem.
func NewMemFS() VFS {
	return afero.NewMemMapFs()
}

// NewReadOnlyFS wraps a filesystem so writes fail with a permission error.
func NewReadOnlyFS(base VFS) VFS {
	return afero.NewReadOnlyFs(base)
}

// NewRelativeFS resolves relative paths against the process's working
// directory before handing them to the backing filesystem. Commands receive
// one of these so "ls foo" means "ls $PWD/foo".
func NewRelativeFS(base VFS, getwd func() string) VFS {
	return &cwdFs{Fs: base, getwd: getwd}
}

type cwdFs struct {
	afero.Fs
	getwd func() string
}

func (c *cwdFs) resolve(name string) string {
	if path.IsAbs(name) {
		return path.Clean(name)
	}
	return path.Clean(path.Join(c.getwd(), name))
}

func (c *cwdFs) Create(name string) (afero.File, error) {
	return c.Fs.Create(c.resolve(name))
}

func (c *cwdFs) Mkdir(name string, perm os.FileMode) error {
	return c.Fs.Mkdir(c.resolve(name), perm)
}

func (c *cwdFs) MkdirAll(name string, perm os.FileMode) error {
	return c.Fs.MkdirAll(c.resolve(name), perm)
}

func (c *cwdFs) Open(name string) (afero.File, error) {
	return c.Fs.Open(c.resolve(name))
}

func (c *cwdFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	return c.Fs.OpenFile(c.resolve(name), flag, perm)
}

func (c *cwdFs) Remove(name string) error {
	return c.Fs.Remove(c.resolve(name))
}

func (c *cwdFs) RemoveAll(name string) error {
	return c.Fs.RemoveAll(c.resolve(name))
}

func (c *cwdFs) Rename(oldname, newname string) error {
	return c.Fs.Rename(c.resolve(oldname), c.resolve(newname))
}

func (c *cwdFs) Stat(name string) (os.FileInfo, error) {
	return c.Fs.Stat(c.resolve(name))
}

func (c *cwdFs) Chmod(name string, mode os.FileMode) error {
	return c.Fs.Chmod(c.resolve(name), mode)
}

func (c *cwdFs) Chown(name string, uid, gid int) error {
	return c.Fs.Chown(c.resolve(name), uid, gid)
}

func (c *cwdFs) Chtimes(name string, atime, mtime time.Time) error {
	return c.Fs.Chtimes(c.resolve(name), atime, mtime)
}

// ReadDirNames lists the entry names of a directory in sorted order.
func ReadDirNames(fs VFS, dir string) ([]string, error) {
	fd, err := fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	names, err := fd.Readdirnames(-1)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
