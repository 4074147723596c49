package epub

import "errors"

// Errors returned while assembling a publication.
var (
	// ErrReservedChapter is returned when a page or chapter name targets
	// chapter 0, which only the cover may occupy.
	ErrReservedChapter = errors.New("chapter 0 is reserved for the cover")

	// ErrInvalidChapter is returned for negative chapter indices.
	ErrInvalidChapter = errors.New("invalid chapter index")

	// ErrClosedBook is returned by any mutation after Finalize.
	ErrClosedBook = errors.New("book already finalized")

	// ErrEmptyBook is returned when navigation or the package document is
	// generated before a cover page exists.
	ErrEmptyBook = errors.New("book has no cover page")

	// ErrImageProbe is returned when a page has no usable pixel dimensions.
	ErrImageProbe = errors.New("image dimensions unavailable")

	// ErrDuplicatePage is returned when a page would reuse a manifest id.
	ErrDuplicatePage = errors.New("duplicate page identifier")

	// ErrInvalidMeta is returned by Meta.Validate.
	ErrInvalidMeta = errors.New("invalid book metadata")
)

// Errors returned while reading an existing EPUB.
var (
	ErrInvalidMimetype    = errors.New("invalid mimetype: must be 'application/epub+zip'")
	ErrMimetypeCompressed = errors.New("mimetype must not be compressed")
	ErrMimetypeNotFound   = errors.New("mimetype file not found")
	ErrMimetypeNotFirst   = errors.New("mimetype must be the first archive entry")
	ErrContainerNotFound  = errors.New("META-INF/container.xml not found")
	ErrOPFPathNotFound    = errors.New("OPF path not found in container.xml")
)
