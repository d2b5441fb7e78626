package commands

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/okian/hiveclaim/internal/domain/model"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// promptKey asks for the posting key on the terminal without echo.
func promptKey(w io.Writer, fd int) (model.Credential, error) {
	if _, err := fmt.Fprint(w, "Posting key: "); err != nil {
		return "", err
	}
	raw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read posting key: %w", err)
	}
	return model.Credential(strings.TrimSpace(string(raw))), nil
}
