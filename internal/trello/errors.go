package trello

import (
	"errors"
	"fmt"
)

// BoardError reports an unexpected HTTP status from a board operation.
type BoardError struct {
	Op         string
	BoardID    string
	StatusCode int
	Body       string
}

func (e *BoardError) Error() string {
	return fmt.Sprintf("board %s failed. status: %d body: %s", e.Op, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a *BoardError carrying the given status.
func IsStatus(err error, status int) bool {
	var be *BoardError
	return errors.As(err, &be) && be.StatusCode == status
}
