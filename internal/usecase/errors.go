package usecase

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for an unknown email and for a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidPagination is returned when page or limit is out of range.
	ErrInvalidPagination = errors.New("page must be >= 1 and limit between 1 and 100")

	// ErrMediaNotUploaded is returned when a download is requested before any upload landed.
	ErrMediaNotUploaded = errors.New("media has not been uploaded")

	// ErrStorageDisabled is returned by media operations when no object storage is configured.
	ErrStorageDisabled = errors.New("media storage is not configured")
)
