// Package images holds the policy for images referenced from blog markdown.
package images

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/gofrs/uuid/v5"
)

var (
	ErrHasParent        = errors.New("image filename must not contain a path")
	ErrInvalidExtension = errors.New("image filename has an unsupported extension")
)

var allowedExtensions = []string{"png", "jpg", "jpeg"}

// ValidateFilename accepts bare filenames with an image extension.
func ValidateFilename(name string) error {
	if strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrHasParent, name)
	}

	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return fmt.Errorf("%w: %q", ErrInvalidExtension, name)
	}
	if ext := strings.ToLower(name[dot+1:]); !slices.Contains(allowedExtensions, ext) {
		return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}
	return nil
}

// HostInjector points images of one blog at the server's public image route.
type HostInjector struct {
	server string
	blogID uuid.UUID
}

func (h HostInjector) IsValid(filename string) bool {
	return ValidateFilename(filename) == nil
}

func (h HostInjector) Inject(filename string) string {
	u, err := url.JoinPath(h.server, "blogs", h.blogID.String(), "public", filename)
	if err != nil {
		return h.server + "/blogs/" + h.blogID.String() + "/public/" + filename
	}
	return u
}

// InjectorFactory makes HostInjectors for a fixed server address.
type InjectorFactory struct {
	server string
}

func NewInjectorFactory(server string) *InjectorFactory {
	return &InjectorFactory{server: strings.TrimRight(server, "/")}
}

func (f *InjectorFactory) For(blogID uuid.UUID) HostInjector {
	return HostInjector{server: f.server, blogID: blogID}
}
