package repository

import "errors"

var ErrCartNotFound = errors.New("cart not found")
