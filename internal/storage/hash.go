package storage

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"xtags/internal/errors"
)

// HashFile returns the blake2b-256 hex digest of the file contents,
// used for unchanged-file detection between runs.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.NewXtagsError(errors.InputUnreadable,
			fmt.Sprintf("cannot open %s for hashing", path), err)
	}
	defer func() { _ = f.Close() }()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", errors.NewXtagsError(errors.InternalError,
			"cannot create hasher", err)
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.NewXtagsError(errors.InputUnreadable,
			fmt.Sprintf("cannot read %s for hashing", path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
