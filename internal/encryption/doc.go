// Package encryption implements the idxcrypt container format and the file processor built on it.
//
// A container is the PBKDF2 salt, the CBC IV, the encrypted magic block and the
// PKCS#7 padded AES-256-CBC payload. Pipeline streams a single file in 64 KiB chunks;
// Processor runs the pipeline over many files with atomic output and optional parallelism.
//
// The magic block detects a wrong password or gross corruption. There is no authentication
// tag, so targeted modification of the payload is not detected.
package encryption
