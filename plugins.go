package rfs

import (
	"context"
	"fmt"
)

// ListPaths is a plugin which lists the paths within a directory.
//
//	fs.AddPlugin(rfs.ListPaths{})
//	paths, err := fs.Call(ctx, "listPaths", "images", true) // => []string
//
// Both arguments are optional and default to the root directory and a
// non-recursive listing.
type ListPaths struct{}

// Method implements Plugin.
func (ListPaths) Method() string { return "listPaths" }

// Handle implements Plugin.
func (ListPaths) Handle(ctx context.Context, fs Filesystem, args ...interface{}) (interface{}, error) {
	var dir string
	var recursive bool

	if len(args) > 0 {
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: directory must be a string, got %T", ErrInvalidArgument, args[0])
		}
		dir = s
	}
	if len(args) > 1 {
		b, ok := args[1].(bool)
		if !ok {
			return nil, fmt.Errorf("%w: recursive must be a bool, got %T", ErrInvalidArgument, args[1])
		}
		recursive = b
	}

	infos, err := fs.ListContents(ctx, dir, recursive)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(infos))
	for _, info := range infos {
		paths = append(paths, info.Name)
	}
	return paths, nil
}
