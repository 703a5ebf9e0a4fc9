package images

import (
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
)

func TestValidateFilename(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		filename string
		wantErr  error
	}{
		{name: "png", filename: "wosi.png"},
		{name: "jpg", filename: "wosi.jpg"},
		{name: "upper case jpeg", filename: "WOSI.JPEG"},
		{name: "several dots", filename: "my.holiday.photo.jpg"},
		{name: "relative path", filename: "./bruda.png", wantErr: ErrHasParent},
		{name: "nested path", filename: "img/bruda.png", wantErr: ErrHasParent},
		{name: "absolute url", filename: "https://example.com/x.png", wantErr: ErrHasParent},
		{name: "no extension", filename: "bruda", wantErr: ErrInvalidExtension},
		{name: "trailing dot", filename: "bruda.", wantErr: ErrInvalidExtension},
		{name: "gif", filename: "bruda.gif", wantErr: ErrInvalidExtension},
		{name: "empty", filename: "", wantErr: ErrInvalidExtension},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateFilename(tt.filename)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateFilename(%q) error = %v, want nil", tt.filename, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFilename(%q) error = %v, want %v", tt.filename, err, tt.wantErr)
			}
		})
	}
}

func TestHostInjector(t *testing.T) {
	t.Parallel()
	injector := NewInjectorFactory("http://localhost:3000/").For(uuid.Nil)

	if got, want := injector.Inject("wosi.jpg"), "http://localhost:3000/blogs/00000000-0000-0000-0000-000000000000/public/wosi.jpg"; got != want {
		t.Errorf("Inject() = %q, want %q", got, want)
	}
	if !injector.IsValid("wosi.jpg") {
		t.Error("IsValid(wosi.jpg) = false, want true")
	}
	if injector.IsValid("./bruda.png") {
		t.Error("IsValid(./bruda.png) = true, want false")
	}
}
