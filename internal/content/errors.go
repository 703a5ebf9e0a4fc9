package content

import "errors"

var (
	ErrReadingFile  = errors.New("could not read source")
	ErrFileTooLarge = errors.New("source exceeds size limit")
	ErrInvalidID    = errors.New("frontmatter id is not a uuid")
)
