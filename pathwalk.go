package fat

import (
	"io"
	"strings"

	"github.com/mufs/fat/errors"
	"github.com/mufs/fat/fatcore"
)

// resolve walks path from the root, matching each component
// case-insensitively: strip leading slashes, split on the first remaining
// slash, rewind-then-scan the current directory for a name match, recurse
// into the match for the remainder of the path. An EOF from directory
// exhaustion becomes "object not found".
func (fs *Filesystem) resolve(path string) (*fatcore.Node, error) {
	root := fs.core.Root()
	return fs.getChild(root, path)
}

func (fs *Filesystem) getChild(dir *fatcore.Node, path string) (*fatcore.Node, error) {
	if !dir.Directory {
		return nil, errors.ErrNotDirectory
	}

	for len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	if len(path) == 0 {
		return dir, nil
	}

	nextSlash := strings.IndexByte(path, '/')
	var part, rest string
	if nextSlash < 0 {
		part = path
		rest = ""
	} else {
		part = path[:nextSlash]
		rest = path[nextSlash+1:]
	}

	if err := fs.core.Rewind(dir); err != nil {
		return nil, err
	}

	for {
		child, err := fs.core.ReadDir(dir)
		if err == io.EOF {
			return nil, errors.ErrObjectNotFound
		}
		if err != nil {
			return nil, err
		}

		if !strings.EqualFold(child.Name, part) {
			continue
		}

		if len(rest) == 0 {
			return child, nil
		}
		if !child.Directory {
			return nil, errors.ErrObjectNotFound
		}
		return fs.getChild(child, rest)
	}
}

// splitPath splits path into its parent directory and final component,
// e.g. "/a/b/c" -> ("/a/b", "c"), "/c" -> ("/", "c").
func splitPath(path string) (parent, name string) {
	trimmed := strings.TrimRight(path, "/")
	idx := strings.LastIndexByte(trimmed, '/')
	if idx < 0 {
		return "/", trimmed
	}
	if idx == 0 {
		return "/", trimmed[1:]
	}
	return trimmed[:idx], trimmed[idx+1:]
}
