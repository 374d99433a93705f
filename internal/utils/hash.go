package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// hashWindowSize is the read window used while hashing file contents.
const hashWindowSize = 4096

// HashFile computes the lowercase hex SHA-256 digest of the file at path, reading it in fixed windows.
func HashFile(path string) (string, error) {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return "", fmt.Errorf("open %s for hashing: %w", path, openError)
	}
	defer fileHandle.Close()

	hasher := sha256.New()
	buffer := make([]byte, hashWindowSize)
	for {
		bytesRead, readError := fileHandle.Read(buffer)
		if bytesRead > 0 {
			hasher.Write(buffer[:bytesRead])
		}
		if readError == io.EOF {
			break
		}
		if readError != nil {
			return "", fmt.Errorf("read %s for hashing: %w", path, readError)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
