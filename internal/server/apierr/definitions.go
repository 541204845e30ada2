package apierr

var (
	BadRequest = APIError{
		Code:    "INVALID_REQUEST",
		Message: "invalid request body",
	}
	Unauthorized = APIError{
		Code:    "UNAUTHORIZED_REQUEST",
		Message: "sign in to continue",
	}
	Forbidden = APIError{
		Code:    "FORBIDDEN",
		Message: "your role does not allow this",
	}
	NotFound = APIError{
		Code:    "NOT_FOUND",
		Message: "resource not found",
	}
	SetupDisabled = APIError{
		Code:    "SETUP_DISABLED",
		Message: "squad setup is disabled on this server",
	}
	NoEvents = APIError{
		Code:    "NO_EVENTS",
		Message: "nothing to undo in the current game",
	}
	GameNotInProgress = APIError{
		Code:    "GAME_NOT_IN_PROGRESS",
		Message: "no game is in progress",
	}
	SessionNotLive = APIError{
		Code:    "SESSION_NOT_LIVE",
		Message: "session has not started",
	}
	SessionCompleted = APIError{
		Code:    "SESSION_COMPLETED",
		Message: "session is already completed",
	}
	NotEnoughTeams = APIError{
		Code:    "NOT_ENOUGH_TEAMS",
		Message: "a session needs at least two teams with players",
	}
	AmbiguousName = APIError{
		Code:    "AMBIGUOUS_NAME",
		Message: "more than one player has that name, use your squad's invite link",
	}
	InternalServerError = APIError{
		Code:    "INTERNAL_SERVER_ERROR",
		Message: "internal server error",
	}
)
