// Package archive packs a directory into a tar stream before encryption and
// unpacks a decrypted tar stream back into a directory.
//
// Exclude patterns are gobwas globs matched against slash-separated paths
// relative to the archived directory: "*" stays within one path segment,
// "**" crosses segments, and "{a,b}" selects alternatives.
package archive
