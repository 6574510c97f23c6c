// Package archive turns a stream of archive entries into a normalized,
// frozen content set, and writes content sets back out as tar streams.
//
// Normalization resolves symlinked directories so that every object is
// recorded at the location it will really occupy once merged. Given
//
//	/usr/lib -> lib64
//	/usr/lib/libfoo.so
//
// the file is recorded at /usr/lib64/libfoo.so and /usr/lib64 is
// synthesized as a directory. The resulting set orders directories first,
// then symlinks and special files, then regular files in archive order.
package archive
