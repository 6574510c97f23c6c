// Package filesystem provides the filesystems merges run against.
//
// FS extends afero.Fs with the link, ownership and device-node operations
// a merge needs. NewOS backs it with the real filesystem; NewAferoFS
// adapts any afero filesystem, which is how tests run against
// afero.NewMemMapFs. Operations the backing filesystem cannot express
// fail with errors.ErrNotSupported.
package filesystem
