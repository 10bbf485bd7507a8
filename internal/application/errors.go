package application

import (
	"errors"

	"assetsync-service/internal/domain"
)

// ErrNotFound is returned by stores for missing keys. It aliases domain.ErrNotFound.
var ErrNotFound = domain.ErrNotFound
var ErrBadRequest = errors.New("bad request")
