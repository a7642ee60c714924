package auth

import (
	apperrors "github.com/jrsteele09/go-marathon-server/internal/errors"
)

var (
	InvalidEmailErr      = apperrors.Wrapf(apperrors.ErrValidation, "invalid email")
	InvalidLoginTokenErr = apperrors.Wrapf(apperrors.ErrValidation, "malformed login tag or code")
	UserNotFoundErr      = apperrors.Wrapf(apperrors.ErrNotFound, "user not found")
)
