package wfc

import "errors"

var (
	ErrInvalidArgument = errors.New("wfc: invalid argument")
	ErrNotFound        = errors.New("wfc: not found")
	ErrInvalidState    = errors.New("wfc: invalid state")
)
