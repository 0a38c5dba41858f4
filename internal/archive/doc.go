// Package archive serializes a directory tree into a zstd-compressed tar stream and back.
//
// Packing walks the tree without following symbolic links and names every entry relative
// to the parent of the root, so the root folder name survives the round trip.
// Unpacking validates every entry name against the destination before writing anything.
// Empty directories are archived and recreated.
package archive
