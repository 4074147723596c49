// Package epub builds fixed-layout EPUB 3 comic books from page images and
// reads them back for verification.
//
// A Writer owns a Book and a Sink. Pages are probed, recorded in the Book and
// streamed into the Sink as they arrive; Finalize renders the container
// descriptor, package document and navigation documents from the finished
// Book. Every renderer is a pure function of the Book.
package epub
