package apidto

// Payloads of the session change stream.

type ScoreChanged struct {
	Event ScoreEvent `json:"event"`
	Game  Game       `json:"game"`
}

type GameCompleted struct {
	Game   Game   `json:"game"`
	Reason string `json:"reason"`
}

type GameStarted struct {
	Game Game `json:"game"`
}

type GamesReconciled struct {
	Games []Game `json:"games"`
}

type SessionChanged struct {
	Session Session `json:"session"`
}

type TeamUpdated struct {
	Team Team `json:"team"`
}
