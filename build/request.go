package build

import (
	"strings"

	"github.com/wippyai/nvmbuild/errors"
)

// Request names one block in one layout file.
type Request struct {
	Block string
	File  string
}

// ParseRequest parses "name@file".
func ParseRequest(s string) (Request, error) {
	name, file, ok := strings.Cut(s, "@")
	name, file = strings.TrimSpace(name), strings.TrimSpace(file)
	if !ok || name == "" || file == "" || strings.Contains(file, "@") {
		return Request{}, errors.InvalidInput(errors.PhaseBuild, "block request %q is not name@file", s)
	}
	return Request{Block: name, File: file}, nil
}

// ParseRequests parses every argument, failing on the first bad one.
func ParseRequests(args []string) ([]Request, error) {
	out := make([]Request, 0, len(args))
	for _, a := range args {
		r, err := ParseRequest(a)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (r Request) String() string {
	return r.Block + "@" + r.File
}
