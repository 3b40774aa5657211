// Package web exposes the DICOMweb-style HTTP surface: QIDO-RS search,
// STOW-RS store, an administrative purge extension, and a capabilities
// document, all backed by a directory of DICOM files plus an index.Store.
package web

import "errors"

// ErrBadRequest indicates a malformed STOW request body.
var ErrBadRequest = errors.New("web: bad request")

// ErrUnsupportedMediaType indicates no member of the request's Accept
// header matches anything the route can produce.
var ErrUnsupportedMediaType = errors.New("web: unsupported media type")

// ErrStorageFailure wraps a file-system or index store error encountered
// while serving a request.
var ErrStorageFailure = errors.New("web: storage operation failed")
