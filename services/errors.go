package services

import "errors"

// Общие ошибки сервисов, маппятся в HTTP-коды в handlers.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации
	ErrValidationFailed        = errors.New("validation failed")
	ErrInvalidStatus           = errors.New("invalid participant status")
	ErrInvalidTab              = errors.New("unknown participant tab")
	ErrInvalidRejectionReason  = errors.New("unknown rejection reason type")
	ErrRejectionReasonRequired = errors.New("at least one rejection reason type is required")
	ErrInvalidWeekInterval     = errors.New("invalid week interval label")
	ErrInvalidRating           = errors.New("rating must be between 1 and 5")
	ErrInvalidVoteType         = errors.New("vote must be like or dislike")
	ErrInvalidPhotoSlot        = errors.New("photo slot must be 1 or 2")
	ErrUnsupportedPhotoType    = errors.New("unsupported photo content type")
	ErrPhotoTooLarge           = errors.New("photo exceeds the size limit")

	// Ошибки состояния
	ErrInvalidStatusTransition = errors.New("status transition is not allowed")
	ErrStatusConflict          = errors.New("participant status was changed by someone else")
	ErrStatusUpdateInProgress  = errors.New("status update for this participant is already in progress")
	ErrParticipantDeleted      = errors.New("participant is deleted")
	ErrParticipantNotDeleted   = errors.New("participant is not deleted")
	ErrVotingClosed            = errors.New("voting is not open for this participant")

	// Сущности
	ErrParticipantNotFound = errors.New("participant not found")

	// Аутентификация и авторизация
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Внешние зависимости
	ErrStorageUnavailable = errors.New("photo storage is not configured")
)
