package repository

import "errors"

var (
	ErrInventoryNotFound = errors.New("inventory not found")
)
